package redis

import (
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
)

func TestIsNilError_TrueForRedisNil(t *testing.T) {
	if !IsNilError(goredis.Nil) {
		t.Errorf("expected IsNilError(redis.Nil) to be true")
	}
}

func TestIsNilError_FalseForOtherErrors(t *testing.T) {
	if IsNilError(errors.New("connection refused")) {
		t.Errorf("expected IsNilError to be false for an unrelated error")
	}
}
