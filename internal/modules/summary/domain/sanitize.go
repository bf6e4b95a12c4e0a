package domain

import "strings"

// Sanitize 送信前の文字置換
//
// 改行→空白、ダブルクォート→シングルクォート、バックスラッシュ→二重バックスラッシュの順で置換する。
// 順序を入れ替えると結果が変わるため変更しないこと。
func Sanitize(text string) string {
	s := strings.ReplaceAll(text, "\n", " ")
	s = strings.ReplaceAll(s, `"`, `'`)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return s
}
