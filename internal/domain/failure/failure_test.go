package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTimeout, KindOf(Timeout(context.DeadlineExceeded)))
	assert.Equal(t, KindApplication, KindOf(fmt.Errorf("wrapped: %w", Application(200, "Geçersiz doğrulama kodu."))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestIs_MatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("leaderboard: %w", Timeout(context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, SessionExpired(401), ErrSessionExpired)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Kod gönderilemedi.", MessageOf(Application(200, "Kod gönderilemedi.")))
	assert.Empty(t, MessageOf(Unreachable(errors.New("dial tcp"))))
}

func TestError_String(t *testing.T) {
	assert.Equal(t, "VALIDATION: bad", Validation(nil, "bad").Error())
	assert.Equal(t, "VALIDATION: bad: short", Validation(errors.New("short"), "bad").Error())
	assert.Equal(t, "SESSION_EXPIRED", SessionExpired(401).Error())
	assert.Equal(t, "UNREACHABLE: eof", Unreachable(errors.New("eof")).Error())
}
