package session

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var englishText = map[string]string{
	CodeWrongPassword:     "The password is incorrect",
	CodeInvalidEmail:      "The email address is invalid",
	CodeUserNotFound:      "No account exists for this email address",
	CodeWeakPassword:      "Please set a password of at least 6 characters",
	CodeEmailAlreadyInUse: "An account already exists for this email address",
}

// the wording the web front end shipped with
var japaneseText = map[string]string{
	CodeWrongPassword:     "パスワードが違います",
	CodeInvalidEmail:      "無効のメールアドレスです",
	CodeUserNotFound:      "ユーザーが存在しません",
	CodeWeakPassword:      "6文字以上でパスワードを設定してください",
	CodeEmailAlreadyInUse: "すでに存在しているメールアドレスです",
}

var supportedTags = []language.Tag{
	language.English,
	language.Japanese,
}

var tagMatcher = language.NewMatcher(supportedTags)

func init() {
	for code, text := range englishText {
		message.SetString(language.English, code, text)
	}
	for code, text := range japaneseText {
		message.SetString(language.Japanese, code, text)
	}

	EnglishMessages = newMessages(language.English)
	JapaneseMessages = newMessages(language.Japanese)
}

// Messages maps provider error codes to user-facing text in one language
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

var (
	// EnglishMessages is the default catalog
	EnglishMessages Messages
	// JapaneseMessages is the Japanese catalog
	JapaneseMessages Messages
)

func newMessages(tag language.Tag) Messages {
	return Messages{tag: tag, printer: message.NewPrinter(tag)}
}

// MatchLocale resolves a BCP 47 locale ("ja", "ja-JP", "ja_JP") to the
// closest supported language. Empty or unparsable locales resolve to English.
func MatchLocale(locale string) (language.Tag, bool) {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return language.English, true
	}

	parsed, err := language.Parse(locale)
	if err != nil {
		return language.English, false
	}

	_, index, confidence := tagMatcher.Match(parsed)
	if confidence == language.No {
		return language.English, false
	}
	return supportedTags[index], true
}

// ValidLocale reports whether locale resolves to a supported language
func ValidLocale(locale string) bool {
	_, ok := MatchLocale(locale)
	return ok
}

// MessagesFor returns the catalog closest to locale, falling back to English
func MessagesFor(locale string) Messages {
	tag, _ := MatchLocale(locale)
	return newMessages(tag)
}

// Locales lists the supported languages
func Locales() []string {
	locales := make([]string, len(supportedTags))
	for i, tag := range supportedTags {
		locales[i] = tag.String()
	}
	return locales
}

// Tag returns the catalog's language
func (m Messages) Tag() language.Tag {
	if m.printer == nil {
		return language.English
	}
	return m.tag
}

// Lookup returns the text for code, or fallback when the code is unknown
func (m Messages) Lookup(code, fallback string) string {
	if _, ok := englishText[code]; !ok {
		return fallback
	}
	p := m.printer
	if p == nil {
		p = EnglishMessages.printer
	}
	return p.Sprintf(code)
}

// Describe returns the user-facing text for err. Provider errors with an
// unknown code fall back to the provider's raw message.
func (m Messages) Describe(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return m.Lookup(perr.Code, perr.Message)
	}
	return err.Error()
}
