package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/sirrryasir/edoskill360-sub000/internal/config"
	"github.com/sirrryasir/edoskill360-sub000/internal/email"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// Task type names. The queue decouples notification delivery from the
// verification and grading paths that trigger it.
const (
	TypeNotifyDeliver = "notify:deliver"
)

// NewClient creates an asynq client over the shared Redis connection.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	})
}

// NotifyPayload is the queued form of a notification.
type NotifyPayload struct {
	UserID     string                 `json:"user_id"`
	TemplateID string                 `json:"template_id"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// QueueNotifier implements services.Notifier by enqueueing delivery tasks.
// Enqueue failures are logged and dropped: notifications never block or roll
// back the state change that produced them.
type QueueNotifier struct {
	client *asynq.Client
}

// NewQueueNotifier wraps an asynq client as a services.Notifier.
func NewQueueNotifier(client *asynq.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) Notify(ctx context.Context, userID utils.SixID, templateID string, data map[string]interface{}) {
	payload, err := json.Marshal(NotifyPayload{
		UserID:     userID.String(),
		TemplateID: templateID,
		Data:       data,
	})
	if err != nil {
		log.Printf("Failed to marshal notification %s for user %s: %v", templateID, userID.String(), err)
		return
	}
	task := asynq.NewTask(TypeNotifyDeliver, payload)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(5)); err != nil {
		log.Printf("Failed to enqueue notification %s for user %s: %v", templateID, userID.String(), err)
	}
}

// TaskProcessor holds the dependencies needed by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	userService services.IUserService
}

// NewTaskProcessor creates a TaskProcessor.
func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, userService services.IUserService) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		userService: userService,
	}
}

// HandleNotifyDeliverTask renders and delivers one queued notification.
func (p *TaskProcessor) HandleNotifyDeliverTask(ctx context.Context, t *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify payload: %v: %w", err, asynq.SkipRetry)
	}

	userID, err := utils.ParseSixID(payload.UserID)
	if err != nil {
		log.Printf("Invalid UserID in notify payload: %s", payload.UserID)
		return fmt.Errorf("invalid user ID in payload: %w", asynq.SkipRetry)
	}

	user, err := p.userService.FindByID(ctx, userID)
	if err != nil {
		// The user may have been deleted since the event fired.
		log.Printf("Notify task: user %s not found, dropping: %v", payload.UserID, err)
		return fmt.Errorf("user not found: %w", asynq.SkipRetry)
	}

	subject, body, err := RenderTemplate(p.cfg.AppName, user.Name, payload.TemplateID, payload.Data)
	if err != nil {
		log.Printf("Notify task: unknown template %s, dropping", payload.TemplateID)
		return fmt.Errorf("unknown template: %w", asynq.SkipRetry)
	}

	rawMessage := BuildRawEmail(p.cfg.SmtpFromAddress, user.Email, subject, body)
	if err := p.emailSender.Send(ctx, []string{user.Email}, subject, rawMessage); err != nil {
		return fmt.Errorf("failed to deliver notification %s to %s: %w", payload.TemplateID, user.Email, err)
	}
	return nil
}

// SetupServer configures an asynq server and registers the task handlers.
// The caller runs it; a nil return means this run mode hosts no worker.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isBgWorker bool) *asynq.Server {
	if !isBgWorker {
		return nil
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotifyDeliver, processor.HandleNotifyDeliverTask)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("Could not run Asynq server: %v", err)
		}
	}()
	return srv
}
