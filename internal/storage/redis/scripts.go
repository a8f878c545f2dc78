package redis

const (
	// saveHabitScript atomically writes a habit, replaces its logs and
	// maintains the creation-ordered index. Returns 1 on success and 0 when
	// the habit already exists (create) or is missing (update).
	saveHabitScript = `
local habit_key = KEYS[1]     -- {prefix}:habit:{id}
local logs_key = KEYS[2]      -- {prefix}:habit:{id}:logs
local index_key = KEYS[3]     -- {prefix}:habits

local mode = ARGV[1]
local id = ARGV[2]
local created_at = ARGV[9]
local score = ARGV[11]

local exists = redis.call('EXISTS', habit_key)
if mode == 'create' and exists == 1 then
  return 0
end
if mode == 'update' then
  if exists == 0 then
    return 0
  end
  -- Creation time is owned by the store
  created_at = redis.call('HGET', habit_key, 'created_at')
end

redis.call('HSET', habit_key,
  'id', id,
  'name', ARGV[3],
  'description', ARGV[4],
  'frequency', ARGV[5],
  'unit', ARGV[6],
  'target_value', ARGV[7],
  'streak', ARGV[8],
  'created_at', created_at,
  'updated_at', ARGV[10]
)

-- Replace the log hash with the given date/value pairs. unpack is bounded
-- by the Lua C stack, so pairs are written in chunks of an even size.
redis.call('DEL', logs_key)
local chunk = 1000
for first = 12, #ARGV, chunk do
  local last = math.min(first + chunk - 1, #ARGV)
  redis.call('HSET', logs_key, unpack(ARGV, first, last))
end

if mode == 'create' then
  redis.call('ZADD', index_key, score, id)
end

return 1
`

	// deleteHabitScript atomically removes a habit, its logs and its index
	// entry. Returns 0 when the habit does not exist.
	deleteHabitScript = `
local habit_key = KEYS[1]     -- {prefix}:habit:{id}
local logs_key = KEYS[2]      -- {prefix}:habit:{id}:logs
local index_key = KEYS[3]     -- {prefix}:habits

local id = ARGV[1]

if redis.call('EXISTS', habit_key) == 0 then
  return 0
end

redis.call('DEL', habit_key, logs_key)
redis.call('ZREM', index_key, id)

return 1
`
)
