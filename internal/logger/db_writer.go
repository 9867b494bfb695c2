package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"labhive/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zapcore"
)

type LogEntry struct {
	Level     zapcore.Level
	Message   string
	IpAddress string
	UserID    string
	Caller    string
}

// LogInserter is the part of *mongo.Collection the writer needs.
type LogInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// DBLogWriter persists log entries from a buffered channel in the background
// so logging never blocks a request.
type DBLogWriter struct {
	sink    LogInserter
	logChan chan LogEntry
	done    chan struct{}
	once    sync.Once
}

func NewDBLogWriter(sink LogInserter) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		logChan: make(chan LogEntry, 1000),
		done:    make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close drains the queue and stops the worker.
func (w *DBLogWriter) Close() {
	w.once.Do(func() {
		close(w.logChan)
		<-w.done
	})
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for entry := range w.logChan {
		record := models.ServerLog{
			Level:     entry.Level.String(),
			Message:   entry.Message,
			Caller:    entry.Caller,
			IpAddress: entry.IpAddress,
			UserID:    entry.UserID,
			CreatedAt: time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// errors are dropped, logging must not take the app down
		_, _ = w.sink.InsertOne(ctx, record)
		cancel()
	}
}
