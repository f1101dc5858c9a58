package mysql

const insertAttractionSQL = `
INSERT INTO attractions
  (external_place_id, name, formatted_address, lat, lng, types, photo_urls, rating,
   user_ratings_total, website, maps_url, phone_number, opening_hours, category,
   custom_tags, city_id, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Duplicate (attraction_id, user_id) rows are ignored; that is the add-if-absent.
const insertRecommenderSQL = `
INSERT IGNORE INTO attraction_recommenders (attraction_id, user_id)
VALUES (?, ?)
`

const appendRecommenderSQL = `
INSERT IGNORE INTO attraction_recommenders (attraction_id, user_id)
SELECT id, ? FROM attractions WHERE external_place_id = ?
`

const attractionExistsSQL = `SELECT 1 FROM attractions WHERE external_place_id = ?`

// recommenders go away with the row via ON DELETE CASCADE
const deleteAttractionSQL = `DELETE FROM attractions WHERE external_place_id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const selectAttractionSQL = `
SELECT
  a.id,
  a.external_place_id,
  a.name,
  a.formatted_address,
  a.lat,
  a.lng,
  a.types,
  a.photo_urls,
  a.rating,
  a.user_ratings_total,
  a.website,
  a.maps_url,
  a.phone_number,
  a.opening_hours,
  a.category,
  a.custom_tags,
  a.created_at,
  c.id,
  c.name,
  c.country,
  c.lat,
  c.lng,
  c.created_at
FROM attractions a
LEFT JOIN cities c ON c.id = a.city_id
`

const getAttractionSQL = selectAttractionSQL + `WHERE a.external_place_id = ?`

// id is AUTO_INCREMENT, so ordering by it is registry (insertion) order.
const listAttractionsSQL = selectAttractionSQL + `ORDER BY a.id`

const recommendersByAttractionSQL = `
SELECT user_id FROM attraction_recommenders WHERE attraction_id = ? ORDER BY seq
`

const listRecommendersSQL = `
SELECT attraction_id, user_id FROM attraction_recommenders ORDER BY attraction_id, seq
`

const findCitySQL = `
SELECT id, name, country, lat, lng, created_at
FROM cities
WHERE name = ? AND country = ?
`

// The no-op update turns a (name, country) collision into success; the
// follow-up SELECT then returns whichever row won.
const insertCitySQL = `
INSERT INTO cities (id, name, country, lat, lng, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE id = id
`
