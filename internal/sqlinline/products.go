package sqlinline

const QSelectProductByID = `--sql 7524d300-9e08-43dc-b722-b2774c160a9b
select
  p.product_id::text,
  p.name,
  coalesce(b.name, ''),
  coalesce(c.name, ''),
  coalesce(sc.name, ''),
  coalesce(p.colour, ''),
  coalesce(p.size, ''),
  coalesce(p.fit, ''),
  coalesce(p.material, ''),
  coalesce(p.description, ''),
  coalesce(p.photos, '{}'::text[])
from products p
left join brands b on b.brand_id = p.brand_id
left join categories c on c.category_id = p.category_id
left join sub_categories sc on sc.sub_category_id = p.sub_category_id
where p.product_id::text = $1::text
limit 1;
`

const QListProductsMissingAI = `--sql 26a19ab4-5b52-4b53-b74e-d94492da2803
select
  p.product_id::text,
  p.name,
  coalesce(b.name, ''),
  coalesce(c.name, ''),
  coalesce(sc.name, ''),
  coalesce(p.colour, ''),
  coalesce(p.size, ''),
  coalesce(p.fit, ''),
  coalesce(p.material, ''),
  coalesce(p.description, ''),
  coalesce(p.photos, '{}'::text[])
from products p
left join brands b on b.brand_id = p.brand_id
left join categories c on c.category_id = p.category_id
left join sub_categories sc on sc.sub_category_id = p.sub_category_id
where not exists (
  select 1
  from ai_generated_photos a
  where a.product_id = p.product_id
    and a.customer_id is null
)
order by p.name asc
limit $1::int;
`

const QListProducts = `--sql 93bc8666-e234-4679-a0c4-3c6cd8d234e8
select
  p.product_id::text,
  p.name,
  coalesce(b.name, ''),
  coalesce(c.name, ''),
  coalesce(sc.name, ''),
  coalesce(p.colour, ''),
  coalesce(p.size, ''),
  coalesce(p.fit, ''),
  coalesce(p.material, ''),
  coalesce(p.description, ''),
  coalesce(p.photos, '{}'::text[])
from products p
left join brands b on b.brand_id = p.brand_id
left join categories c on c.category_id = p.category_id
left join sub_categories sc on sc.sub_category_id = p.sub_category_id
order by p.name asc
limit $1::int;
`
