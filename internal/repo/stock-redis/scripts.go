package stockredis

import "github.com/redis/go-redis/v9"

// releaseExpired returns every reservation of a product whose expiry is at or
// before now back to available. Numbers reach redis.call as ARGV strings.
const releaseExpired = `
local function release(pid, now, limit)
  local skey = 'stock:' .. pid
  local zkey = 'reservations:expiry:' .. pid
  local ids
  if limit then
    ids = redis.call('ZRANGEBYSCORE', zkey, '-inf', now, 'LIMIT', '0', limit)
  else
    ids = redis.call('ZRANGEBYSCORE', zkey, '-inf', now)
  end
  for _, id in ipairs(ids) do
    local rkey = 'reservation:' .. id
    local sid = redis.call('HGET', rkey, 'session_id')
    redis.call('DEL', rkey)
    redis.call('ZREM', zkey, id)
    if sid then
      local sess = 'session_reservation:' .. sid .. ':' .. pid
      if redis.call('GET', sess) == id then
        redis.call('DEL', sess)
      end
      redis.call('SREM', 'session_reservations:' .. sid, id)
    end
  end
  local n = #ids
  if n > 0 then
    redis.call('HINCRBY', skey, 'available', n)
    redis.call('HINCRBY', skey, 'reserved', -n)
  end
  return n
end
`

// KEYS: stock, products; ARGV: product_id, initial
var initScript = redis.NewScript(`
redis.call('SADD', KEYS[2], ARGV[1])
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'available', ARGV[2], 'reserved', '0', 'sold', '0')
return 1
`)

// KEYS: stock; ARGV: product_id, now
var getScript = redis.NewScript(releaseExpired + `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
release(ARGV[1], ARGV[2])
local v = redis.call('HMGET', KEYS[1], 'available', 'reserved', 'sold')
return {tonumber(v[1]), tonumber(v[2]), tonumber(v[3])}
`)

// KEYS: stock, session reservation, expiry, reservation, session reservations
// ARGV: product_id, session_id, reservation_id, now, expires_at, ttl_ms
// Returns the reservation id, -1 for an unknown product or -2 when exhausted.
var reserveScript = redis.NewScript(releaseExpired + `
local pid, sid, id = ARGV[1], ARGV[2], ARGV[3]
local skey, sess = KEYS[1], KEYS[2]
if redis.call('EXISTS', skey) == 0 then
  return -1
end
release(pid, ARGV[4])

local existing = redis.call('GET', sess)
if existing and redis.call('EXISTS', 'reservation:' .. existing) == 1 then
  return existing
end

local available = tonumber(redis.call('HGET', skey, 'available') or '0')
if available <= 0 then
  return -2
end

redis.call('HINCRBY', skey, 'available', -1)
redis.call('HINCRBY', skey, 'reserved', 1)
redis.call('HSET', KEYS[4],
  'product_id', pid, 'session_id', sid, 'expires_at', ARGV[5], 'created_at', ARGV[4])
redis.call('ZADD', KEYS[3], ARGV[5], id)
redis.call('SET', sess, id, 'PX', ARGV[6])
redis.call('SADD', KEYS[5], id)
if redis.call('PTTL', KEYS[5]) < tonumber(ARGV[6]) then
  redis.call('PEXPIRE', KEYS[5], ARGV[6])
end
return id
`)

// KEYS: reservation
// ARGV: reservation_id, now, counter receiving the unit ("sold" or "available")
// Returns 1 when the reservation was consumed, 0 when it is unknown or expired.
var consumeScript = redis.NewScript(releaseExpired + `
local id, now, target = ARGV[1], ARGV[2], ARGV[3]
local rkey = KEYS[1]
local pid = redis.call('HGET', rkey, 'product_id')
if not pid then
  return 0
end
if tonumber(redis.call('HGET', rkey, 'expires_at')) <= tonumber(now) then
  release(pid, now)
  return 0
end

local sid = redis.call('HGET', rkey, 'session_id')
redis.call('DEL', rkey)
redis.call('ZREM', 'reservations:expiry:' .. pid, id)
local sess = 'session_reservation:' .. sid .. ':' .. pid
if redis.call('GET', sess) == id then
  redis.call('DEL', sess)
end
redis.call('SREM', 'session_reservations:' .. sid, id)
redis.call('HINCRBY', 'stock:' .. pid, 'reserved', -1)
redis.call('HINCRBY', 'stock:' .. pid, target, 1)
return 1
`)

// KEYS: products; ARGV: now, limit
var expireScript = redis.NewScript(releaseExpired + `
local remaining = tonumber(ARGV[2])
local total = 0
for _, pid in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  if remaining <= 0 then
    break
  end
  local n = release(pid, ARGV[1], tostring(remaining))
  total = total + n
  remaining = remaining - n
end
return total
`)

// KEYS: session reservations; ARGV: now
// Returns id, product_id, expires_at, created_at for every unexpired
// reservation of the session. Ids whose reservation is gone are dropped.
var listScript = redis.NewScript(`
local out = {}
for _, id in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  local v = redis.call('HMGET', 'reservation:' .. id, 'product_id', 'expires_at', 'created_at')
  if not v[1] then
    redis.call('SREM', KEYS[1], id)
  elseif tonumber(v[2]) > tonumber(ARGV[1]) then
    table.insert(out, id)
    table.insert(out, v[1])
    table.insert(out, v[2])
    table.insert(out, v[3])
  end
end
return out
`)
