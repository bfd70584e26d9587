package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	textInvalidLink = "❌ Lien YouTube invalide"
	textAnalysing   = "🔍 Analyse de la vidéo…"
	textProbeFailed = "❌ Impossible d’analyser la vidéo"
	textCancelled   = "❌ Annulé"
	textExpired     = "⌛ Session expirée, renvoie le lien"
	textAborting    = "⏹ Annulation…"
)

// welcomeText is shown for /start and /help
func welcomeText(largeFileHint string, maxUploadMB float64) string {
	return fmt.Sprintf("🎥 *YTMM Downloader*\n\n"+
		"• Envoie un lien YouTube\n"+
		"• Choisis la résolution\n"+
		"• Sous-titres intégrés\n"+
		"• %s si > %g Mo\n\n"+
		"🔗 Envoie le lien maintenant", escape(largeFileHint), maxUploadMB)
}

// menuText introduces the resolution keyboard
func menuText(title string) string {
	return fmt.Sprintf("🎬 *%s*\n\nChoisis la résolution :", escape(title))
}

// estimateText replaces the menu once a resolution is chosen
func estimateText(estimatedMB int, resolution string) string {
	return fmt.Sprintf("📦 Taille estimée : *~%d Mo*\n📺 Résolution : *%s*\n\n⬇️ Téléchargement en cours…",
		estimatedMB, escape(resolution))
}

// escape neutralises Markdown control characters in user-supplied text
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
