package sqlinline

// Returns no row when the day's counter already reached the ceiling.
const QConsumeDailyUsage = `--sql d1e8e4c0-96d1-47f4-b545-f14ae76c32a5
insert into ai_generation_usage as u(day, used)
values ($1::date, 1)
on conflict (day) do update
  set used = u.used + 1
  where u.used < $2::int
returning used;
`

const QCountDailyUsage = `--sql 63197a0d-5ec6-415e-8f2f-6489a7d9f3c6
select coalesce((select used from ai_generation_usage where day = $1::date), 0)::int;
`
