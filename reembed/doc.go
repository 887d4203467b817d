// Copyright 2025 Poiesic Systems
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

// Package reembed migrates stored chunk embeddings to a new embedding model.
//
// Migration is additive: every chunk gets a new embedding row tagged with the
// target model and existing rows are left untouched until an explicit prune.
// Progress is checkpointed per target model so an interrupted run resumes
// after the last completed batch.
package reembed
