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

package http

import (
	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/validation"
)

var assignableRoles = []string{"admin", "member"}

var (
	registerSchema = validation.Object(
		validation.Email("email").Required(),
		validation.String("password").Min(6).Required(),
		validation.String("name"),
		validation.String("workspaceName").Min(1).Trimmed(),
	)

	loginSchema = validation.Object(
		validation.Email("email").Required(),
		validation.String("password").Required(),
	)

	createTenantSchema = validation.Object(
		validation.String("name").Min(1).Trimmed().Required(),
		validation.String("description"),
	)

	updateTenantSchema = validation.Object(
		validation.String("name").Min(1).Trimmed(),
		validation.String("description"),
	)

	inviteMemberSchema = validation.Object(
		validation.Email("email").Required(),
		validation.Enum("role", assignableRoles...).Required(),
	)

	updateRoleSchema = validation.Object(
		validation.Enum("role", assignableRoles...).Required(),
	)

	createDatasetSchema = validation.Object(
		validation.String("name").Min(1).Trimmed().Required(),
		validation.String("description"),
		validation.Enum("status", dataset.Statuses...),
		validation.JSON("schema"),
		validation.JSON("metadata"),
	)

	updateDatasetSchema = validation.Object(
		validation.String("name").Min(1).Trimmed(),
		validation.String("description"),
		validation.Enum("status", dataset.Statuses...),
		validation.JSON("schema"),
		validation.JSON("metadata"),
	)

	createJobSchema = validation.Object(
		validation.String("name").Min(1).Trimmed().Required(),
		validation.String("description"),
		validation.String("type").Min(1).Trimmed().Required(),
		validation.JSON("config"),
		validation.String("schedule"),
		validation.Bool("isActive"),
	)

	updateJobSchema = validation.Object(
		validation.String("name").Min(1).Trimmed(),
		validation.String("description"),
		validation.String("type").Min(1).Trimmed(),
		validation.JSON("config"),
		validation.String("schedule"),
		validation.Bool("isActive"),
	)

	createAPIKeySchema = validation.Object(
		validation.String("name").Min(1).Trimmed().Required(),
		validation.Timestamp("expiresAt"),
	)
)
