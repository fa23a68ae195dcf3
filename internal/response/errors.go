package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Identity ──────────────────────────────────────────────────────
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Session flow ──────────────────────────────────────────────────
	ErrNoRuntime        ErrCode = "NO_RUNTIME"
	ErrSessionCompleted ErrCode = "SESSION_COMPLETED"
	ErrPhaseMismatch    ErrCode = "PHASE_MISMATCH"
	ErrQuestionNotReady ErrCode = "QUESTION_NOT_READY"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrSubmissionGated  ErrCode = "SUBMISSION_GATED"
	ErrNavigationDenied ErrCode = "NAVIGATION_DENIED"
	ErrActionInFlight   ErrCode = "ACTION_IN_FLIGHT"
	ErrNotCodeQuestion  ErrCode = "NOT_CODE_QUESTION"
	ErrAnalysisDenied   ErrCode = "ANALYSIS_NOT_AVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Identity ──────────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan masuk kembali."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Session flow ──────────────────────────────────────────────────
	case ErrNoRuntime:
		return "Tidak ada sesi kuis aktif untuk peserta ini."
	case ErrSessionCompleted:
		return "Sesi kuis telah berakhir."
	case ErrPhaseMismatch:
		return "Tindakan ini tidak tersedia pada fase saat ini."
	case ErrQuestionNotReady:
		return "Pertanyaan belum dimuat. Silakan tunggu sebentar."
	case ErrAlreadySubmitted:
		return "Jawaban untuk pertanyaan ini sudah dikirim."
	case ErrSubmissionGated:
		return "Lengkapi jawaban Anda sebelum mengirim."
	case ErrNavigationDenied:
		return "Navigasi soal tidak diperbolehkan pada mode ini."
	case ErrActionInFlight:
		return "Permintaan sebelumnya masih diproses."
	case ErrNotCodeQuestion:
		return "Pertanyaan ini bukan soal pemrograman."
	case ErrAnalysisDenied:
		return "Analisis kode hanya tersedia setelah percobaan yang gagal."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
