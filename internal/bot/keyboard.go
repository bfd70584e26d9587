package bot

import (
	"strings"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// Callback payload prefixes
const (
	prefixResolution = "res:"
	prefixAbort      = "abort:"
	payloadCancel    = "cancel"
)

// buttonsPerRow is the width of the resolution menu
const buttonsPerRow = 3

// CallbackKind identifies what a button press asks for
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackResolution
	CallbackCancel
	CallbackAbort
)

// ResolutionKeyboard lists every resolution tier followed by a cancel row
func ResolutionKeyboard() *domain.Keyboard {
	keyboard := &domain.Keyboard{}
	var row []domain.Button
	for _, res := range domain.Resolutions {
		row = append(row, domain.Button{Text: res.Key, Data: prefixResolution + res.Key})
		if len(row) == buttonsPerRow {
			keyboard.Rows = append(keyboard.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard.Rows = append(keyboard.Rows, row)
	}
	keyboard.Rows = append(keyboard.Rows, []domain.Button{{Text: "❌ Annuler", Data: payloadCancel}})
	return keyboard
}

// AbortKeyboard carries the button that stops a running download
func AbortKeyboard(requestID string) *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		{{Text: "⏹ Arrêter", Data: prefixAbort + requestID}},
	}}
}

// ParseCallback splits a payload into its kind and argument
func ParseCallback(data string) (CallbackKind, string) {
	switch {
	case data == payloadCancel:
		return CallbackCancel, ""
	case strings.HasPrefix(data, prefixResolution):
		return CallbackResolution, strings.TrimPrefix(data, prefixResolution)
	case strings.HasPrefix(data, prefixAbort):
		if id := strings.TrimPrefix(data, prefixAbort); id != "" {
			return CallbackAbort, id
		}
	}
	return CallbackUnknown, ""
}
