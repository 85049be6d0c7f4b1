package service

import (
	"errors"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/domain/failure"
)

// User-facing texts.
const (
	MsgUnreachable      = "Sunucuya bağlanılamadı. Lütfen tekrar deneyin."
	MsgUnreachableShort = "Sunucuya bağlanılamadı."
	MsgTimeout          = "İstek zaman aşımına uğradı. Lütfen tekrar deneyin."
	MsgSessionExpired   = "Oturumunuzun süresi doldu. Lütfen tekrar giriş yapın."

	MsgPhoneInvalid     = "Lütfen geçerli bir telefon numarası giriniz."
	MsgNationalID       = "TC Kimlik No 11 haneli olmalıdır."
	MsgRequiredFields   = "Lütfen tüm alanları doldurunuz."
	MsgOtpInvalid       = "Geçersiz doğrulama kodu."
	MsgOtpNotSent       = "Kod gönderilemedi."
	MsgPlateInvalid     = "Geçerli bir plaka numarası giriniz."
	MsgCarFields        = "Lütfen marka, model ve yıl seçiniz."
	MsgYearOutOfRange   = "Geçerli bir model yılı seçiniz."
	MsgUpdateFailed     = "Güncelleme başarısız."
	MsgLeaderboardError = "Sıralama tablosu yüklenemedi."
	MsgCampaignFallback = "Yeni kampanyalar çok yakında burada!"
)

// errorText maps a failure to its inline message. fallback replaces an empty
// application or validation message.
func errorText(err error, fallback, unreachable string) string {
	switch failure.KindOf(err) {
	case failure.KindApplication, failure.KindValidation:
		if msg := failure.MessageOf(err); msg != "" {
			return msg
		}
		return fallback
	case failure.KindTimeout:
		return MsgTimeout
	default:
		return unreachable
	}
}

// validationFailure wraps a domain validation error with its inline message.
func validationFailure(err error) *failure.Error {
	switch {
	case errors.Is(err, auth.ErrPhoneDigits):
		return failure.Validation(err, MsgPhoneInvalid)
	case errors.Is(err, auth.ErrNationalID):
		return failure.Validation(err, MsgNationalID)
	case errors.Is(err, auth.ErrRequiredFields):
		return failure.Validation(err, MsgRequiredFields)
	case errors.Is(err, driver.ErrPlateTooShort):
		return failure.Validation(err, MsgPlateInvalid)
	case errors.Is(err, driver.ErrCarFields):
		return failure.Validation(err, MsgCarFields)
	case errors.Is(err, driver.ErrYearOutOfRange):
		return failure.Validation(err, MsgYearOutOfRange)
	default:
		return failure.Validation(err, "")
	}
}

// swallowed reports whether err was already handled centrally.
func swallowed(err error) bool {
	return errors.Is(err, failure.ErrSessionExpired)
}

func isApplication(err error) bool {
	return failure.KindOf(err) == failure.KindApplication
}
