package parser

import (
	"regexp"
	"strings"
)

const maxCodeLen = 20

var (
	reCodeInvalid    = regexp.MustCompile(`[^A-Z0-9_]`)
	reCodeUnderscore = regexp.MustCompile(`_+`)
)

// GenerateCode 由名称生成机器键
// 大写、去重音、空白转下划线、去掉非字母数字、合并下划线；
// 超过 20 字符时：首段 >= 8 字符取首段，否则各段取前 3 字符以下划线连接。
func GenerateCode(name string) string {
	s := strings.ToUpper(stripDiacritics(strings.TrimSpace(name)))
	s = whitespaceRe.ReplaceAllString(s, "_")
	s = reCodeInvalid.ReplaceAllString(s, "")
	s = reCodeUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	if len(s) <= maxCodeLen {
		return s
	}

	tokens := strings.Split(s, "_")
	if len(tokens[0]) >= 8 {
		return tokens[0]
	}
	short := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) > 3 {
			t = t[:3]
		}
		short = append(short, t)
	}
	return strings.Join(short, "_")
}
