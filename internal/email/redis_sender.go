package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sirrryasir/edoskill360-sub000/internal/config"
)

// RedisSender stores outgoing notifications in Redis instead of delivering
// them. End-to-end tests poll the mocknotify keys to observe what a user
// would have received.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{client: client, cfg: cfg}
}

func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	data := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	key := fmt.Sprintf("mocknotify:%s", primaryTo)
	if err := s.client.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to store notification in Redis key '%s': %w", key, err)
	}
	log.Printf("Mock notification stored in Redis key '%s' (Subject: %s)", key, subject)
	return nil
}
