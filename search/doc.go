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

// Package search retrieves contract chunks that are semantically close to a query.
//
// A Searcher embeds the query and asks a storage.VectorIndex for the nearest
// chunks above a similarity threshold. By default it is fail-open: any
// embedding or index failure is logged and turned into an empty result so
// a missing citation never fails the answer built on top of it. Fail-closed
// mode (WithFailOpen(false)) surfaces the same failures wrapped in
// ErrRetrieval.
package search
