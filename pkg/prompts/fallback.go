package prompts

import "golang.org/x/text/language"

// Fallback narration shown when the oracle is unreachable or returns
// garbage. Localized for the supported campaign languages; anything else
// matches to English.

var supportedTags = []language.Tag{
	language.English,             // en, the default
	language.BrazilianPortuguese, // pt-BR
	language.Spanish,             // es
}

var matcher = language.NewMatcher(supportedTags)

// fallbackTexts indexes by the position of the matched tag in supportedTags.
type fallbackTexts struct {
	narration     string
	opening       string
	notice        string
	arrestCorrect string
	arrestWrong   string
}

var texts = []fallbackTexts{
	{
		narration:     "The story pauses for a moment, the scene holding its breath. Take stock of what you know, and try your action again.",
		opening:       "The story is ready to begin, though the narrator's voice falters for a moment. Describe your first move and the tale will pick you up from there.",
		notice:        "The narrator was unreachable. This opening is a placeholder; your next message will retry the connection.",
		arrestCorrect: "The pieces fall into place and the accusation lands true. The case is closed.",
		arrestWrong:   "The accusation does not hold. Your suspect walks free, and the case remains open.",
	},
	{
		narration:     "A história faz uma pausa, a cena prendendo a respiração. Reveja o que você sabe e tente sua ação novamente.",
		opening:       "A história está pronta para começar, embora a voz do narrador falhe por um momento. Descreva seu primeiro movimento e a trama o levará dali.",
		notice:        "O narrador está inacessível. Esta abertura é provisória; sua próxima mensagem tentará a conexão novamente.",
		arrestCorrect: "As peças se encaixam e a acusação se confirma. O caso está encerrado.",
		arrestWrong:   "A acusação não se sustenta. Seu suspeito sai livre, e o caso continua aberto.",
	},
	{
		narration:     "La historia se detiene un momento, la escena contiene la respiración. Repasa lo que sabes e intenta tu acción de nuevo.",
		opening:       "La historia está lista para comenzar, aunque la voz del narrador falla por un momento. Describe tu primer movimiento y el relato te llevará desde allí.",
		notice:        "El narrador no está disponible. Esta apertura es provisional; tu próximo mensaje reintentará la conexión.",
		arrestCorrect: "Las piezas encajan y la acusación se confirma. El caso está cerrado.",
		arrestWrong:   "La acusación no se sostiene. Tu sospechoso queda libre y el caso sigue abierto.",
	},
}

// localize resolves a BCP 47 tag to the closest supported text set.
func localize(langTag string) fallbackTexts {
	if langTag == "" {
		return texts[0]
	}
	_, index := language.MatchStrings(matcher, langTag)
	return texts[index]
}

// FallbackNarration is the mid-campaign fallback turn text.
func FallbackNarration(langTag string) string {
	return localize(langTag).narration
}

// FallbackOpening is the fallback opening narrative for a new campaign.
func FallbackOpening(langTag string) string {
	return localize(langTag).opening
}

// FallbackOpeningNotice is the system notice persisted alongside a fallback
// opening.
func FallbackOpeningNotice(langTag string) string {
	return localize(langTag).notice
}

// FallbackArrestNarrative is the arrest outcome text used when the judge
// oracle call fails and the local verifier decides.
func FallbackArrestNarrative(langTag string, correct bool) string {
	t := localize(langTag)
	if correct {
		return t.arrestCorrect
	}
	return t.arrestWrong
}
