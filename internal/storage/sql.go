package storage

const (
	insertModelSQL = `
INSERT INTO models (modelref)
VALUES (?)
ON CONFLICT (modelref) DO NOTHING`

	insertImportSQL = `
INSERT INTO imports (importref,
                     modelref,
                     dateref,
                     importedon)
VALUES (?, ?, ?, ?)`

	insertLogFileSQL = `
INSERT INTO log_files (filename,
                       importref,
                       bintype)
VALUES (?, ?, ?)`

	insertFlightStatSQL = `
INSERT OR REPLACE INTO flight_stats (importref,
                                     flight_number,
                                     duration_seconds,
                                     max_distance_m,
                                     max_altitude_m,
                                     max_h_speed_mps,
                                     max_v_speed_mps,
                                     traveled_m)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectImportExistsSQL = `
SELECT EXISTS(SELECT 1 FROM imports WHERE importref = ?)`

	selectImportsSQL = `
SELECT
    importref,
    modelref,
    dateref,
    importedon
FROM imports`

	selectLogFilesSQL = `
SELECT
    filename,
    bintype
FROM log_files
WHERE
    importref = ?
ORDER BY filename`

	selectFlightStatsSQL = `
SELECT
    importref,
    flight_number,
    duration_seconds,
    max_distance_m,
    max_altitude_m,
    max_h_speed_mps,
    max_v_speed_mps,
    traveled_m
FROM flight_stats
WHERE
    importref = ?
ORDER BY flight_number`

	deleteFlightStatsSQL = `DELETE FROM flight_stats WHERE importref = ?`
	deleteLogFilesSQL    = `DELETE FROM log_files WHERE importref = ?`
	deleteImportSQL      = `DELETE FROM imports WHERE importref = ?`
)
