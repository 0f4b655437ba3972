// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими
// claim полями: имя пользователя, его идентификатор и признак администратора.
//
// Признак администратора материализуется в токен в момент входа и при
// последующих запросах к базе не перепроверяется: окно устаревания равно
// времени жизни токена.
package jwt

import "time"

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateAccessToken создаёт access-токен с данными пользователя.
	GenerateAccessToken(username string, userID int, isAdmin bool) (string, error)
	// GenerateRefreshToken создаёт refresh-токен с увеличенным TTL.
	GenerateRefreshToken(username string, userID int, isAdmin bool) (string, error)
	// ParseToken разбирает токен и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и раздельных TTL для access- и refresh-токенов.
type MakerImpl struct {
	secretKey  string        // Секретный ключ для подписи токенов
	accessTTL  time.Duration // Время жизни access-токена
	refreshTTL time.Duration // Время жизни refresh-токена
}

// NewMaker создаёт новый экземпляр MakerImpl.
func NewMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}
