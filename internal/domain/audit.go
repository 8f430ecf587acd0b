package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction tags what an audit entry records.
type AuditAction string

const (
	ActionRegister           AuditAction = "REGISTER"
	ActionRegisterFailed     AuditAction = "REGISTER_FAILED"
	ActionLogin              AuditAction = "LOGIN"
	ActionLoginFailed        AuditAction = "LOGIN_FAILED"
	ActionExternalLogin      AuditAction = "EXTERNAL_LOGIN"
	ActionLogout             AuditAction = "LOGOUT"
	ActionTokenRefresh       AuditAction = "TOKEN_REFRESH"
	ActionTokenRefreshFailed AuditAction = "TOKEN_REFRESH_FAILED"
	ActionTokenVerify        AuditAction = "TOKEN_VERIFY"
	ActionViewAllUsers       AuditAction = "VIEW_ALL_USERS"
	ActionViewUser           AuditAction = "VIEW_USER"
	ActionUserUpdate         AuditAction = "USER_UPDATE"
	ActionDeleteUser         AuditAction = "DELETE_USER"
	ActionProfileUpdate      AuditAction = "PROFILE_UPDATE"
	ActionViewProfile        AuditAction = "VIEW_PROFILE"
	ActionProfileUpdateByID  AuditAction = "PROFILE_UPDATE_BY_ID"
	ActionDeviceTokenUpdate  AuditAction = "DEVICE_TOKEN_UPDATE"
	ActionViewActivityLogs   AuditAction = "VIEW_ACTIVITY_LOGS"
	ActionActivityLogCleanup AuditAction = "ACTIVITY_LOG_CLEANUP"
	ActionVideoCreate        AuditAction = "VIDEO_CREATE"
	ActionVideoUpdate        AuditAction = "VIDEO_UPDATE"
	ActionVideoDelete        AuditAction = "VIDEO_DELETE"
)

// AuditLogEntry is an append-only record of a security-relevant or
// administrative action. UserID is nil for failures that happen before an
// account is known, such as a failed login.
type AuditLogEntry struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      *uuid.UUID        `json:"userId" gorm:"type:uuid;index"`
	Action      AuditAction       `json:"action" gorm:"type:varchar(64);not null;index"`
	Description string            `json:"description" gorm:"type:text"`
	IPAddress   string            `json:"ipAddress"`
	UserAgent   string            `json:"userAgent" gorm:"type:text"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	CreatedAt   time.Time         `json:"createdAt" gorm:"index"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (AuditLogEntry) TableName() string {
	return "user_activity_logs"
}

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// AfterFind turns the json.Number values the JSON column decodes into back
// into int64 or float64, matching what Normalize stores.
func (e *AuditLogEntry) AfterFind(tx *gorm.DB) error {
	for k, v := range e.Metadata {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			e.Metadata[k] = i
		} else if f, err := n.Float64(); err == nil {
			e.Metadata[k] = f
		} else {
			e.Metadata[k] = n.String()
		}
	}
	return nil
}

// Metadata is free-form context attached to an audit entry. Values are
// limited to strings, booleans and numbers so the stored shape stays flat.
type Metadata map[string]any

// Normalize returns a copy in which every value is a string, bool, int64 or
// float64. Anything else is flattened to its fmt representation.
func (m Metadata) Normalize() Metadata {
	if len(m) == 0 {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case string, bool, int64, float64:
			out[k] = val
		case int:
			out[k] = int64(val)
		case int8:
			out[k] = int64(val)
		case int16:
			out[k] = int64(val)
		case int32:
			out[k] = int64(val)
		case uint:
			out[k] = int64(val)
		case uint8:
			out[k] = int64(val)
		case uint16:
			out[k] = int64(val)
		case uint32:
			out[k] = int64(val)
		case uint64:
			out[k] = float64(val)
		case float32:
			out[k] = float64(val)
		case fmt.Stringer:
			out[k] = val.String()
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
