package directory

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"directory-agent/internal/model"
)

// phoneDigits 电话比较只看最后 11 位数字，兼容国家码前缀
const phoneDigits = 11

// aliasGroup 字段别名组：key 为规范列名，aliases 为同义列名
type aliasGroup struct {
	key     string
	aliases []string
}

var fieldAliases = []aliasGroup{
	{key: "telefone", aliases: []string{"phone", "celular", "mobile", "user_phone", "whatsapp"}},
	{key: "email", aliases: []string{"e-mail", "e_mail", "user_email"}},
	{key: "nome", aliases: []string{"name", "user_name", "nome_completo"}},
}

// NormalizeHeader 列名规范化：小写、去首尾空白、去重音、空白转下划线
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// transform.Chain 有状态，每次调用单独创建
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), "_")
}

// NormalizeHeaders 规范化整行表头。每次读表都重新计算，不缓存列位置。
func NormalizeHeaders(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// ResolveColumn 在已规范化的表头中查找字段所在列。
// 先精确匹配，再按别名组匹配（想要的字段包含组 key 或任一别名）。
func ResolveColumn(headers []string, field string) (int, bool) {
	want := NormalizeHeader(field)
	if want == "" {
		return 0, false
	}
	for i, h := range headers {
		if h == want {
			return i, true
		}
	}
	for _, g := range fieldAliases {
		if !g.matches(want) {
			continue
		}
		for _, candidate := range append([]string{g.key}, g.aliases...) {
			for i, h := range headers {
				if h == candidate {
					return i, true
				}
			}
		}
	}
	return 0, false
}

func (g aliasGroup) matches(want string) bool {
	if strings.Contains(want, g.key) {
		return true
	}
	for _, a := range g.aliases {
		if strings.Contains(want, a) {
			return true
		}
	}
	return false
}

// CanonicalField 字段属于某个别名组时返回组 key（telefone/email/nome），否则返回空串
func CanonicalField(field string) string {
	want := NormalizeHeader(field)
	if want == "" {
		return ""
	}
	for _, g := range fieldAliases {
		if want == g.key || g.matches(want) {
			return g.key
		}
	}
	return ""
}

// IdentityColumn 列名恰好是某个别名组的 key 或别名时返回组 key，
// "sobrenome"、"email_secundario" 这类只是包含关键字的列返回空串
func IdentityColumn(header string) string {
	h := NormalizeHeader(header)
	if h == "" {
		return ""
	}
	for _, g := range fieldAliases {
		if h == g.key {
			return g.key
		}
		for _, a := range g.aliases {
			if h == a {
				return g.key
			}
		}
	}
	return ""
}

// IsPhoneColumn 表头是否为电话列
func IsPhoneColumn(header string) bool {
	h := NormalizeHeader(header)
	return strings.Contains(h, "telefone") || strings.Contains(h, "phone")
}

// PhoneKey 只保留数字并截取最后 11 位
func PhoneKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > phoneDigits {
		digits = digits[len(digits)-phoneDigits:]
	}
	return digits
}

// MatchValue 比较单元格与目标值：电话列按数字比较，其余列忽略大小写与首尾空白
func MatchValue(header, cell, want string) bool {
	if IsPhoneColumn(header) {
		c, w := PhoneKey(cell), PhoneKey(want)
		return c != "" && c == w
	}
	c, w := strings.TrimSpace(cell), strings.TrimSpace(want)
	return c != "" && strings.EqualFold(c, w)
}

// Candidates 按优先级列出定位用户行的候选键：指令中的 identifier，其次会话中的 email、电话、姓名
func Candidates(ident *model.Identifier, fallback model.SessionContext) []model.Identifier {
	var out []model.Identifier
	if ident != nil && ident.Key != "" && ident.Value != "" {
		out = append(out, *ident)
	}
	for _, c := range []model.Identifier{
		{Key: "email", Value: fallback.UserEmail},
		{Key: "telefone", Value: fallback.UserPhone},
		{Key: "nome", Value: fallback.UserName},
	} {
		if strings.TrimSpace(c.Value) != "" {
			out = append(out, c)
		}
	}
	return out
}

// ResolveRow 返回第一个"列存在且有行匹配"的候选所对应的数据行下标（>=1）。
// 找不到时返回 false，由调用方决定是否致命。
func ResolveRow(table [][]string, ident *model.Identifier, fallback model.SessionContext) (int, bool) {
	if len(table) == 0 {
		return 0, false
	}
	headers := NormalizeHeaders(table[0])
	for _, cand := range Candidates(ident, fallback) {
		col, ok := ResolveColumn(headers, cand.Key)
		if !ok {
			continue
		}
		for r := 1; r < len(table); r++ {
			if MatchValue(headers[col], cell(table, r, col), cand.Value) {
				return r, true
			}
		}
	}
	return 0, false
}

// cell 取单元格，行尾缺失的单元格视为空
func cell(table [][]string, row, col int) string {
	if row < 0 || row >= len(table) || col < 0 || col >= len(table[row]) {
		return ""
	}
	return table[row][col]
}
