// Package i18n holds the static translation dictionary. Indonesian is the
// default language; English is offered to callers that ask for it.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.Indonesian, language.English}

var (
	matcher = language.NewMatcher(supported)
	cat     = newCatalog()
)

var dictionary = map[language.Tag]map[string]string{
	language.Indonesian: {
		"template.classic":    "Klasik",
		"template.modern":     "Modern",
		"template.floral":     "Bunga",
		"template.vintage":    "Vintage",
		"template.minimalist": "Minimalis",
		"template.default":    "Bawaan",

		"music.romantic":     "Piano Romantis",
		"music.acoustic":     "Gitar Akustik",
		"music.instrumental": "Instrumental",

		"message.success.created":   "Undangan berhasil dibuat!",
		"message.success.published": "Undangan berhasil dibuat dan dipublikasikan!",
		"message.success.updated":   "Undangan berhasil diperbarui!",
		"message.success.deleted":   "Undangan berhasil dihapus!",
		"message.success.signIn":    "Selamat datang kembali!",
		"message.success.signUp":    "Akun Anda berhasil dibuat!",
		"message.success.signOut":   "Anda telah berhasil keluar.",
		"message.success.uploaded":  "Foto berhasil diupload!",
		"message.success.sent":      "Pesan Anda berhasil dikirim!",
		"message.success.rsvp":      "Terima kasih atas konfirmasi kehadiran Anda!",
		"message.success.shared":    "Undangan berhasil dikirim melalui WhatsApp!",

		"message.error.generic":      "Terjadi kesalahan. Silakan coba lagi.",
		"message.error.validation":   "Mohon lengkapi kolom yang wajib diisi.",
		"message.error.unauthorized": "Silakan masuk terlebih dahulu.",
		"message.error.notFound":     "Undangan tidak ditemukan",
		"message.error.conflict":     "Data sudah ada.",
		"message.error.uploadPhoto":  "Gagal upload foto",
		"message.error.transport":    "Layanan sedang tidak tersedia. Silakan coba lagi.",

		"dashboard.welcome": "Selamat datang kembali, %s",

		"whatsapp.invitation": "💌 *Undangan Pernikahan*\n\n" +
			"Kepada %s,\n\n" +
			"Dengan penuh sukacita kami mengundang Anda ke pernikahan\n\n" +
			"*%s* & *%s*\n\n" +
			"📅 Tanggal: %s\n" +
			"📍 Tempat: %s\n\n" +
			"Lihat undangan: %s\n\n" +
			"Balas *YA* jika hadir atau *TIDAK* jika berhalangan.",
		"whatsapp.accepted": "🎉 Terima kasih! Kami menantikan kehadiran Anda di pernikahan %s & %s pada %s. 💕",
		"whatsapp.declined": "Terima kasih telah memberi kabar. Kami akan merindukan Anda di pernikahan %s & %s. 💕",
		"whatsapp.maybe":    "Terima kasih! Kabari kami lagi jika sudah pasti ya. 💕",
		"whatsapp.disabled": "Pengiriman WhatsApp tidak aktif.",
		"venue.tbd":         "Akan diumumkan",
	},
	language.English: {
		"template.classic":    "Classic",
		"template.modern":     "Modern",
		"template.floral":     "Floral",
		"template.vintage":    "Vintage",
		"template.minimalist": "Minimalist",
		"template.default":    "Default",

		"music.romantic":     "Romantic Piano",
		"music.acoustic":     "Acoustic Guitar",
		"music.instrumental": "Instrumental",

		"message.success.created":   "Invitation created successfully!",
		"message.success.published": "Invitation created and published!",
		"message.success.updated":   "Invitation updated successfully!",
		"message.success.deleted":   "Invitation deleted successfully!",
		"message.success.signIn":    "Welcome back!",
		"message.success.signUp":    "Your account has been created!",
		"message.success.signOut":   "You have been signed out.",
		"message.success.uploaded":  "Photo uploaded!",
		"message.success.sent":      "Your message has been sent!",
		"message.success.rsvp":      "Thank you for your RSVP!",
		"message.success.shared":    "Invitation sent over WhatsApp!",

		"message.error.generic":      "Something went wrong. Please try again.",
		"message.error.validation":   "Please fill in the required fields.",
		"message.error.unauthorized": "Please sign in first.",
		"message.error.notFound":     "Invitation not found",
		"message.error.conflict":     "This already exists.",
		"message.error.uploadPhoto":  "Failed to upload photo",
		"message.error.transport":    "The service is unavailable. Please try again.",

		"dashboard.welcome": "Welcome back, %s",

		"whatsapp.invitation": "💌 *Wedding Invitation*\n\n" +
			"Dear %s,\n\n" +
			"You are cordially invited to celebrate the wedding of\n\n" +
			"*%s* & *%s*\n\n" +
			"📅 Date: %s\n" +
			"📍 Location: %s\n\n" +
			"View the invitation: %s\n\n" +
			"Reply *YES* to accept or *NO* to decline.",
		"whatsapp.accepted": "🎉 Wonderful! We look forward to celebrating the wedding of %s & %s with you on %s. 💕",
		"whatsapp.declined": "Thank you for letting us know. We'll miss you at the wedding of %s & %s. 💕",
		"whatsapp.maybe":    "Thank you! Let us know once you're sure. 💕",
		"whatsapp.disabled": "WhatsApp sharing is disabled.",
		"venue.tbd":         "To be announced",
	},
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Indonesian))
	for tag, entries := range dictionary {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("i18n: " + key + ": " + err.Error())
			}
		}
	}
	return b
}

// Default is the language used when the caller expresses no preference.
func Default() language.Tag {
	return language.Indonesian
}

// Match picks the supported language that best fits an Accept-Language
// header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// T translates key into lang, formatting args into the message. Unknown keys
// come back unchanged.
func T(lang language.Tag, key string, args ...any) string {
	return message.NewPrinter(lang, message.Catalog(cat)).Sprintf(key, args...)
}
