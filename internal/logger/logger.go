// Package logger provides the structured logger that main builds once, under
// the service name "tokenarena", and hands to the match coordinator.
package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
)

// LogLevel represents the severity of a log message.
type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
)

// SystemLog is a durable record of one logged event, written asynchronously
// so logging never blocks a tick.
type SystemLog struct {
	ID        uint   `gorm:"primaryKey"`
	Service   string `gorm:"size:50;index"`
	Level     string `gorm:"size:20;index"`
	Message   string `gorm:"type:text"`
	EventType string `gorm:"size:50"`
	EventData string `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"index"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}

// Logger is the centralized logger for one service component.
type Logger struct {
	db          *gorm.DB
	service     string
	enableDB    bool
	enableDebug bool
}

// NewLogger creates a logger scoped to a service name (e.g.
// "match-coordinator", "snapshot-fetcher", "strategy-compiler").
func NewLogger(service string, db *gorm.DB) *Logger {
	return &Logger{
		db:          db,
		service:     service,
		enableDB:    db != nil,
		enableDebug: os.Getenv("LOG_LEVEL") == "DEBUG",
	}
}

func (l *Logger) Debug(message string, keyvals ...interface{}) {
	if !l.enableDebug {
		return
	}
	l.log(DEBUG, message, keyvals...)
}

func (l *Logger) Info(message string, keyvals ...interface{}) {
	l.log(INFO, message, keyvals...)
}

func (l *Logger) Warn(message string, keyvals ...interface{}) {
	l.log(WARN, message, keyvals...)
}

func (l *Logger) Error(message string, err error, keyvals ...interface{}) {
	if err != nil {
		keyvals = append(keyvals, "error", err.Error())
	}
	l.log(ERROR, message, keyvals...)
}

func (l *Logger) log(level LogLevel, message string, keyvals ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	consoleMsg := fmt.Sprintf("[%s][%s][%s] %s", timestamp, l.service, level, message)

	if len(keyvals) > 0 {
		consoleMsg = fmt.Sprintf("%s %s", consoleMsg, formatKeyVals(keyvals...))
	}

	log.Println(consoleMsg)

	if l.enableDB && level != DEBUG {
		go l.logToDB(level, message, keyvals...)
	}
}

func (l *Logger) logToDB(level LogLevel, message string, keyvals ...interface{}) {
	if l.db == nil {
		return
	}

	eventData := make(map[string]interface{})
	for i := 0; i < len(keyvals)-1; i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		eventData[key] = keyvals[i+1]
	}

	eventJSON := ""
	if len(eventData) > 0 {
		bytes, _ := json.Marshal(eventData)
		eventJSON = string(bytes)
	}

	logEntry := SystemLog{
		Service:   l.service,
		Level:     string(level),
		Message:   message,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}

	if err := l.db.Create(&logEntry).Error; err != nil {
		log.Printf("[LOGGER][ERROR] failed to write log to database: %v", err)
	}
}

func formatKeyVals(keyvals ...interface{}) string {
	if len(keyvals) == 0 {
		return ""
	}
	result := ""
	for i := 0; i < len(keyvals)-1; i += 2 {
		if i > 0 {
			result += " "
		}
		result += fmt.Sprintf("%v=%v", keyvals[i], keyvals[i+1])
	}
	return result
}

// LogEvent logs a structured, typed event alongside the free-text message.
func (l *Logger) LogEvent(eventType string, data map[string]interface{}) {
	if l.db == nil {
		l.Info(fmt.Sprintf("event: %s", eventType), mapToKeyVals(data)...)
		return
	}

	eventJSON := ""
	if data != nil {
		bytes, _ := json.Marshal(data)
		eventJSON = string(bytes)
	}

	logEntry := SystemLog{
		Service:   l.service,
		Level:     string(INFO),
		Message:   fmt.Sprintf("event: %s", eventType),
		EventType: eventType,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}

	go func() {
		if err := l.db.Create(&logEntry).Error; err != nil {
			log.Printf("[LOGGER][ERROR] failed to write event to database: %v", err)
		}
	}()

	l.Info(fmt.Sprintf("event: %s", eventType), mapToKeyVals(data)...)
}

func mapToKeyVals(data map[string]interface{}) []interface{} {
	result := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		result = append(result, k, v)
	}
	return result
}

// GlobalLogger is set through SetGlobalLogger and used by package-level
// convenience functions for code that doesn't carry a *Logger reference.
// main does not set it, so it stays nil unless a caller sets it.
var GlobalLogger *Logger

func SetGlobalLogger(l *Logger) {
	GlobalLogger = l
}

func Debug(message string, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Debug(message, keyvals...)
	}
}

func Info(message string, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Info(message, keyvals...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

func Warn(message string, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Warn(message, keyvals...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

func Error(message string, err error, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Error(message, err, keyvals...)
	} else {
		log.Printf("[ERROR] %s: %v", message, err)
	}
}
