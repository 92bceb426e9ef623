package api

import (
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// AuditLogger writes one logfmt-style line per game mutation and
// noteworthy client event. Credentials never reach the log.
type AuditLogger struct {
	logger *log.Logger
}

// NewAuditLogger creates an audit logger writing to stdout
func NewAuditLogger() *AuditLogger {
	return NewAuditLoggerTo(os.Stdout)
}

// NewAuditLoggerTo creates an audit logger writing to w
func NewAuditLoggerTo(w io.Writer) *AuditLogger {
	return &AuditLogger{
		logger: log.New(w, "[AUDIT] ", log.LstdFlags|log.LUTC),
	}
}

// LogGameCreated records a new game
func (al *AuditLogger) LogGameCreated(requestID string, gameID int64, remoteAddr string) {
	al.logger.Printf(
		"game_created request_id=%s game_id=%d remote_addr=%s service_version=%s timestamp=%s",
		requestID,
		gameID,
		remoteAddr,
		ServiceVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogRollRecorded records an accepted roll
func (al *AuditLogger) LogRollRecorded(requestID string, gameID int64, roll string, historyLen int, remoteAddr string) {
	al.logger.Printf(
		"roll_recorded request_id=%s game_id=%d roll=%q rolls=%d remote_addr=%s service_version=%s timestamp=%s",
		requestID,
		gameID,
		roll,
		historyLen,
		remoteAddr,
		ServiceVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSummaryServed records a summary response
func (al *AuditLogger) LogSummaryServed(requestID string, gameID int64, summaryID string, model string, rollCount int) {
	al.logger.Printf(
		"summary_served request_id=%s game_id=%d summary_id=%s model=%s rolls=%d service_version=%s timestamp=%s",
		requestID,
		gameID,
		summaryID,
		model,
		rollCount,
		ServiceVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSecurityEvent logs rejected input and throttled clients
func (al *AuditLogger) LogSecurityEvent(
	requestID string,
	eventType string,
	description string,
	context map[string]interface{},
	remoteAddr string,
) {
	al.logger.Printf(
		"security_event request_id=%s type=%s description=%q context=%+v remote_addr=%s service_version=%s timestamp=%s",
		requestID,
		eventType,
		description,
		sanitizeContext(context),
		remoteAddr,
		ServiceVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogAuditEvent logs generic audit events such as health probes
func (al *AuditLogger) LogAuditEvent(
	requestID string,
	action string,
	resource string,
	outcome string,
	details map[string]interface{},
) {
	al.logger.Printf(
		"audit_event request_id=%s action=%s resource=%s outcome=%s details=%+v service_version=%s timestamp=%s",
		requestID,
		action,
		resource,
		outcome,
		sanitizeContext(details),
		ServiceVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemStartup logs startup configuration
func (al *AuditLogger) LogSystemStartup(addr string, config map[string]interface{}) {
	al.logger.Printf(
		"system_startup addr=%s config=%+v service_version=%s git_commit=%s build_time=%s timestamp=%s",
		addr,
		sanitizeContext(config),
		ServiceVersion,
		GitCommit,
		BuildTime,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemShutdown logs shutdown information
func (al *AuditLogger) LogSystemShutdown(reason string, uptime time.Duration) {
	al.logger.Printf(
		"system_shutdown reason=%s uptime=%v service_version=%s timestamp=%s",
		reason,
		uptime,
		ServiceVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// sanitizeContext redacts credential-looking keys
func sanitizeContext(context map[string]interface{}) map[string]interface{} {
	if context == nil {
		return nil
	}

	sanitized := make(map[string]interface{}, len(context))
	for key, value := range context {
		switch strings.ToLower(key) {
		case "api_key", "apikey", "openai_api_key", "secret", "password", "token", "authorization":
			sanitized[key] = "[REDACTED]"
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}
