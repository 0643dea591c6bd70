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


// Package webcrawl defines the contracts for discovering and extracting the
// pages of a documentation site.
//
// A Mapper turns a seed URL into the list of page URLs under it. An Extractor
// turns a batch of page URLs into raw page text, reporting per-page failures
// alongside the successes. A Crawler does both in one call. Two backends are
// provided: webcrawl/tavily talks to the hosted Tavily API, and webcrawl/direct
// fetches and converts pages itself.
package webcrawl
