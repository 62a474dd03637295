// Copyright 2026 The Datagov Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import "log/slog"

// Attribute keys shared by every log line the service emits.
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyTenantID  = "tenant_id"
	KeyRunID     = "run_id"
	KeyComponent = "component"
)

func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }

func Method(method string) slog.Attr { return slog.String("method", method) }

func Path(path string) slog.Attr { return slog.String("path", path) }

func RemoteAddr(addr string) slog.Attr { return slog.String("remote_addr", addr) }

func UserAgent(ua string) slog.Attr { return slog.String("user_agent", ua) }

func StatusCode(code int) slog.Attr { return slog.Int("status_code", code) }

// Duration is reported in milliseconds.
func Duration(ms int64) slog.Attr { return slog.Int64("duration_ms", ms) }

func UserID(id string) slog.Attr { return slog.String(KeyUserID, id) }

func Email(email string) slog.Attr { return slog.String("email", email) }

func TenantID(id string) slog.Attr { return slog.String(KeyTenantID, id) }

// RunID identifies a job run.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }

// Error renders err as a string attribute; a nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func Stack(stack []byte) slog.Attr { return slog.String("stack", string(stack)) }

func RowsAffected(rows int64) slog.Attr { return slog.Int64("rows_affected", rows) }

// Component tags log lines from long-running subsystems such as the job runner.
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

func String(key, value string) slog.Attr { return slog.String(key, value) }
