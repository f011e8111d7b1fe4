package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"

	"github.com/sikshyalaya/backend/config"
	"github.com/sikshyalaya/backend/internal/application"
	"github.com/sikshyalaya/backend/internal/gateway/esewa"
	pginfra "github.com/sikshyalaya/backend/internal/infrastructure/postgres"
	"github.com/sikshyalaya/backend/pkg/helpers"
)

// The reconcile worker converges payments stuck between gateway verification
// and enrollment application. It consumes reconcile jobs pushed by the API and
// runs a cron sweep as the safety net for jobs that never made the queue. The
// sweep also purges expired refresh tokens.
func main() {
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-reconcile", cfg.Env)

	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	emailPub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ (email queue): %v", err)
	}
	defer emailPub.Close()

	reconcilePub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQReconcileQueue)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ (reconcile queue): %v", err)
	}
	defer reconcilePub.Close()

	users := pginfra.NewUserRepository(pool)
	tokens := pginfra.NewRefreshTokenRepository(pool)
	courses := pginfra.NewCourseRepository(pool)
	progress := pginfra.NewProgressRepository(pool)
	payments := pginfra.NewPaymentRepository(pool)

	gateway := esewa.NewClient(cfg.EsewaMerchantCode, cfg.EsewaVerifyURL, cfg.EsewaVerifyTimeout, logger)
	svc := application.NewPaymentService(
		users, courses, progress, payments,
		gateway, &helpers.RedisLatch{RDB: rdb},
		emailPub, reconcilePub, logger,
		cfg.AppName, cfg.EsewaSecretKey, cfg.PaymentSignatureEnforce,
	)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(8, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQReconcileQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQReconcileQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	go func() {
		for msg := range msgs {
			var job application.ReconcileJob
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				logger.WithError(err).Warn("bad reconcile message")
				_ = msg.Nack(false, false)
				continue
			}
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := svc.Reconcile(jobCtx, job.TransactionUUID)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("transaction_uuid", job.TransactionUUID).Warn("reconcile failed, requeueing")
				_ = msg.Nack(false, !msg.Redelivered)
				continue
			}
			logger.WithField("transaction_uuid", job.TransactionUUID).Info("payment reconciled")
			_ = msg.Ack(false)
		}
	}()

	c := cron.New()
	// Sweep payments that have been stuck for at least ten minutes.
	_, err = c.AddFunc("*/10 * * * *", func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		applied, err := svc.SweepUnapplied(sweepCtx, 10*time.Minute, 200)
		if err != nil {
			logger.WithError(err).Error("reconcile sweep failed")
			return
		}
		if applied > 0 {
			logger.WithField("applied", applied).Info("reconcile sweep converged payments")
		}
	})
	if err != nil {
		log.Fatalf("cron: %v", err)
	}
	// Purge expired refresh tokens nightly.
	_, err = c.AddFunc("0 3 * * *", func() {
		purgeCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		n, err := tokens.DeleteExpired(purgeCtx, time.Now())
		if err != nil {
			logger.WithError(err).Error("refresh token purge failed")
			return
		}
		logger.WithField("deleted", n).Info("expired refresh tokens purged")
	})
	if err != nil {
		log.Fatalf("cron: %v", err)
	}
	c.Start()
	defer c.Stop()

	logger.Infof("reconcile worker consuming %q", cfg.RabbitMQReconcileQueue)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reconcile worker shutting down")
}
