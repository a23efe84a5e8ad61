// Copyright 2026 The Switchback Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package ratelimit implements token bucket rate limiters for the
RequestRateLimiter filter.

Every bucket is identified by a route id and a key resolved from the
request, e.g. the remote address or the value of a header. A bucket
holds up to BurstCapacity tokens and is refilled with ReplenishRate
tokens per second. A request takes RequestedTokens tokens from the
bucket, and it is allowed only when there were enough tokens left.

The Local limiter keeps the buckets in the memory of the current
process, bounded by an LRU cache. The Redis limiter keeps them in
Redis, so that the limits apply to all the instances sharing the same
Redis shards. The bucket is updated by a single Lua script, atomically.

When Redis cannot be reached, the Redis limiter allows the request and
returns the error, so that the callers can log it. The remaining tokens
are reported as -1 in this case.
*/
package ratelimit
