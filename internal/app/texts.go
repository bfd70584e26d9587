package app

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Outcome texts edited into the progress message once a request finishes
const (
	TextCancelled     = "❌ Téléchargement annulé"
	TextDownloadError = "❌ Erreur de téléchargement"
	TextSent          = "✅ Envoyé"
	TextQueueFull     = "⏳ File d’attente pleine, réessaie dans quelques minutes"
)

// bytesPerMB converts file sizes to the "Mo" shown to users (MiB)
const bytesPerMB = 1024 * 1024

// SizeMB converts a byte count to megabytes
func SizeMB(sizeBytes int64) float64 {
	return float64(sizeBytes) / bytesPerMB
}

// VideoCaption is the caption of a delivered file: its name without extension and size
func VideoCaption(path string, sizeBytes int64) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("✅ %s\n📦 %.1f Mo", stem, SizeMB(sizeBytes))
}

// OversizeText tells the user the file is too large and where to go instead
func OversizeText(sizeBytes int64, hint string) string {
	return fmt.Sprintf("📦 %.1f Mo\n⚠️ Trop lourd pour Telegram\n➡️ Utilise %s", SizeMB(sizeBytes), hint)
}
