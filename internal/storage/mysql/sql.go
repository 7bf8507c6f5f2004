package mysql

// Inventory writes. ReplaceInventory deletes parents only; children go with
// them through the ON DELETE CASCADE constraints.

const deleteRoomTypesSQL = `DELETE FROM room_types`

const insertRoomTypeSQL = `
INSERT INTO room_types
  (id, name, description, size_value, category_code, category_name, position)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Child rows are inserted with multi-VALUES statements; the prefixes below are
// completed with one "(...)" group per row.
const insertImagesPrefix = `INSERT INTO room_type_images (room_type_id, url, position) VALUES `
const insertAmenitiesPrefix = `INSERT INTO amenities (room_type_id, code) VALUES `
const insertPlacementsPrefix = `INSERT INTO placements (room_type_id, kind, count, min_age, max_age) VALUES `

const insertAddressSQL = `
INSERT INTO addresses
  (room_type_id, postal_code, country_code, region, region_id, city_name, city_id, address_line, latitude, longitude, remark)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertOccupancySQL = `
INSERT INTO occupancy (room_type_id, adult_bed, extra_bed, child_without_bed)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const selectRoomTypesSQL = `
SELECT id, name, description, size_value, category_code, category_name, position
FROM room_types
ORDER BY id
`

const selectRoomTypeByIDSQL = `
SELECT id, name, description, size_value, category_code, category_name, position
FROM room_types
WHERE id = ?
`

// Children are batch-fetched for a parent id set rather than per parent.
// Image order: position ascending, insertion order on ties.
const selectImagesPrefix = `
SELECT room_type_id, url, position
FROM room_type_images
WHERE room_type_id IN (%s)
ORDER BY room_type_id, position, id
`

const selectAmenitiesPrefix = `
SELECT room_type_id, code
FROM amenities
WHERE room_type_id IN (%s)
ORDER BY room_type_id, id
`

const selectAddressesPrefix = `
SELECT room_type_id, postal_code, country_code, region, region_id, city_name, city_id, address_line, latitude, longitude, remark
FROM addresses
WHERE room_type_id IN (%s)
`

const selectOccupancyPrefix = `
SELECT room_type_id, adult_bed, extra_bed, child_without_bed
FROM occupancy
WHERE room_type_id IN (%s)
`

const selectPlacementsPrefix = `
SELECT room_type_id, kind, count, min_age, max_age
FROM placements
WHERE room_type_id IN (%s)
ORDER BY room_type_id, id
`

// Feedback

const insertFeedbackSQL = `INSERT INTO feedbacks (text, rate) VALUES (?, ?)`

const selectFeedbackByIDSQL = `
SELECT id, text, rate, created_at, updated_at
FROM feedbacks
WHERE id = ?
`

const listFeedbacksSQL = `
SELECT id, text, rate, created_at, updated_at
FROM feedbacks
ORDER BY created_at DESC, id DESC
`

const deleteFeedbackSQL = `DELETE FROM feedbacks WHERE id = ?`

const insertVideoFeedbackSQL = `INSERT INTO video_feedbacks (uuid, file, rate) VALUES (?, ?, ?)`

const selectVideoFeedbackSQL = `
SELECT uuid, file, rate, created_at, updated_at
FROM video_feedbacks
WHERE uuid = ?
`

const listVideoFeedbacksSQL = `
SELECT uuid, file, rate, created_at, updated_at
FROM video_feedbacks
ORDER BY created_at DESC, uuid DESC
`

const deleteVideoFeedbackSQL = `DELETE FROM video_feedbacks WHERE uuid = ?`
