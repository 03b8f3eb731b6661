// Package credential кодирует учётные данные аккаунтов для хранения в БД.
//
// Кодирование обратимо и не является шифрованием: любой, у кого есть доступ к БД,
// может восстановить исходные значения. Формат (стандартный base64 от UTF-8 байтов)
// сохранён для совместимости с уже накопленными записями склада.
package credential

import (
	"encoding/base64"
	"strings"
)

// Encode возвращает закодированное представление текста.
func Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode восстанавливает текст, закодированный Encode.
// Некорректный ввод декодируется по возможности: символы вне алфавита base64
// отбрасываются, а если декодировать нечего, возвращается исходная строка.
func Decode(token string) string {
	if b, err := base64.StdEncoding.DecodeString(token); err == nil {
		return string(b)
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/':
			return r
		case r == '-':
			return '+'
		case r == '_':
			return '/'
		default:
			return -1
		}
	}, token)

	// Хвост из одного символа не несёт полного байта.
	if len(cleaned)%4 == 1 {
		cleaned = cleaned[:len(cleaned)-1]
	}
	if cleaned == "" {
		return token
	}

	b, err := base64.RawStdEncoding.DecodeString(cleaned)
	if err != nil {
		return token
	}
	return string(b)
}
