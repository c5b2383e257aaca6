package publish

import (
	"database/sql"
	"fmt"
	"time"

	// sqlite driver for the pose log database.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/estimator"
)

const poseLogSchemaSQL = `
CREATE TABLE IF NOT EXISTS pose_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts_ns INTEGER NOT NULL,
    tx REAL NOT NULL,
    ty REAL NOT NULL,
    tz REAL NOT NULL,
    r00 REAL NOT NULL, r01 REAL NOT NULL, r02 REAL NOT NULL,
    r10 REAL NOT NULL, r11 REAL NOT NULL, r12 REAL NOT NULL,
    r20 REAL NOT NULL, r21 REAL NOT NULL, r22 REAL NOT NULL,
    cov_trace REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pose_log_ts ON pose_log(ts_ns);
`

// PoseLog is a PoseSink persisting poses to a SQLite database for offline
// analysis.
type PoseLog struct {
	db *sql.DB
}

var _ PoseSink = (*PoseLog)(nil)

// NewPoseLog opens (creating if needed) the pose log database at path.
func NewPoseLog(path string) (*PoseLog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", path))
	if err != nil {
		return nil, errors.Wrap(err, "opening pose log")
	}
	if _, err := db.Exec(poseLogSchemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "initializing pose log schema")
	}
	return &PoseLog{db: db}, nil
}

// PublishPose inserts one row per applied visual message.
func (p *PoseLog) PublishPose(ts time.Time, pose estimator.Pose, stateCov *mat.SymDense) error {
	covTrace := 0.0
	if stateCov != nil {
		n, _ := stateCov.Dims()
		for i := 0; i < n; i++ {
			covTrace += stateCov.At(i, i)
		}
	}
	r := pose.Rotation
	_, err := p.db.Exec(
		`INSERT INTO pose_log (ts_ns, tx, ty, tz, r00, r01, r02, r10, r11, r12, r20, r21, r22, cov_trace)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UnixNano(),
		pose.Translation.X, pose.Translation.Y, pose.Translation.Z,
		r.At(0, 0), r.At(0, 1), r.At(0, 2),
		r.At(1, 0), r.At(1, 1), r.At(1, 2),
		r.At(2, 0), r.At(2, 1), r.At(2, 2),
		covTrace,
	)
	return errors.Wrap(err, "inserting pose row")
}

// Count returns the number of logged poses.
func (p *PoseLog) Count() (int, error) {
	var n int
	err := p.db.QueryRow(`SELECT COUNT(*) FROM pose_log`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (p *PoseLog) Close() error {
	return p.db.Close()
}
