package db

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

// mockDuplicateKeyError builds an error that IsMongoDuplicateKeyError matches.
func mockDuplicateKeyError(key string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error dup key: { : %q }", key),
	}}}
}

func TestWithRetries_SuccessFirstAttempt(t *testing.T) {
	var calls int
	err := WithRetries(func() error {
		calls++
		return nil
	}, 3, IsMongoDuplicateKeyError)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetries_NonDuplicateKeyFailsImmediately(t *testing.T) {
	var calls int
	wantErr := errors.New("connection reset")
	err := WithRetries(func() error {
		calls++
		return wantErr
	}, 3, IsMongoDuplicateKeyError)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetries_ExhaustsRetries(t *testing.T) {
	var calls int
	maxRetries := 3
	err := WithRetries(func() error {
		calls++
		return mockDuplicateKeyError("ABCDEFGH12")
	}, maxRetries, IsMongoDuplicateKeyError)

	if err == nil {
		t.Fatal("expected a duplicate key error, got nil")
	}
	if !IsMongoDuplicateKeyError(err) {
		t.Errorf("expected a duplicate key error, got %T: %v", err, err)
	}
	if calls != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, calls)
	}
}

func TestWithRetries_CollisionResolves(t *testing.T) {
	var calls int
	err := WithRetries(func() error {
		calls++
		if calls == 1 {
			return mockDuplicateKeyError("ABCDEFGH12")
		}
		return nil
	}, 3, IsMongoDuplicateKeyError)
	if err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestIsMongoDuplicateKeyError(t *testing.T) {
	if IsMongoDuplicateKeyError(errors.New("some error")) {
		t.Error("plain error should not match")
	}
	if !IsMongoDuplicateKeyError(mockDuplicateKeyError("X")) {
		t.Error("write exception with code 11000 should match")
	}
	other := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}
	if IsMongoDuplicateKeyError(other) {
		t.Error("write exception with other code should not match")
	}
}
