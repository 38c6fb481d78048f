package entity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// UploadedView фото одного ракурса в том виде, в каком его загрузил пользователь.
type UploadedView struct {
	Name string
	Data []byte
}

// ContentHash возвращает sha256 содержимого в hex.
func (v UploadedView) ContentHash() string {
	sum := sha256.Sum256(v.Data)
	return hex.EncodeToString(sum[:])
}

// Decode декодирует изображение (JPEG или PNG).
func (v UploadedView) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(v.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", v.Name, err)
	}
	return img, nil
}

// ViewInfo данные классификатора для показа пользователю.
type ViewInfo struct {
	Predicted  string  `json:"predicted"`
	Confidence float64 `json:"confidence"`
	Margin     float64 `json:"margin"`
}

// ViewValidationResult итог проверки одного ракурса. Никогда не меняется на месте:
// при новой загрузке создаётся новый результат.
type ViewValidationResult struct {
	ViewName string    `json:"view_name"`
	Passed   bool      `json:"passed"`
	Reasons  []string  `json:"reasons"`
	Warnings []string  `json:"warnings,omitempty"`
	Info     *ViewInfo `json:"info,omitempty"`
}

// PassedView результат без замечаний.
func PassedView(view string, info *ViewInfo) ViewValidationResult {
	return ViewValidationResult{ViewName: view, Passed: true, Reasons: []string{}, Info: info}
}

// FailedView результат с причинами отказа.
func FailedView(view string, info *ViewInfo, reasons ...string) ViewValidationResult {
	return ViewValidationResult{ViewName: view, Passed: false, Reasons: reasons, Info: info}
}
