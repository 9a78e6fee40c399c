package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 60

var (
	// slugInvalidRunes 匹配除小写字母、数字、连字符以外的字符
	slugInvalidRunes = regexp.MustCompile(`[^a-z0-9-]+`)
	// slugHyphenRuns 匹配连续的连字符
	slugHyphenRuns = regexp.MustCompile(`-{2,}`)
)

// Slugify 将标题转换为 URL 友好的 slug：Unicode 正规化去除变音符号，
// 转小写，非字母数字字符折叠为连字符，并截断到最大长度。
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = slugInvalidRunes.ReplaceAllString(result, "-")
	result = slugHyphenRuns.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxSlugLength {
		result = strings.Trim(result[:maxSlugLength], "-")
	}

	return result
}

// slugWithSuffix 在 base 后追加随机短后缀，用于解决 slug 冲突。
// 追加后整体仍不超过最大长度。
func slugWithSuffix(base string) string {
	suffix := uuid.NewString()[:8]
	if base == "" {
		return suffix
	}

	maxBase := maxSlugLength - len(suffix) - 1
	if len(base) > maxBase {
		base = strings.Trim(base[:maxBase], "-")
	}
	return base + "-" + suffix
}
