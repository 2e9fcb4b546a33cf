package storage

import (
	"database/sql"
	"encoding/json"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// Mysql persists the state blob in a one row table, keyed by StateKey.
type Mysql struct {
	logger logrus.FieldLogger
	db     *sql.DB
}

func NewMysql(connString string, logger logrus.FieldLogger) (*Mysql, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	instance := Mysql{
		logger: logger.WithField("module", "storage"),
		db:     db,
	}

	if err = instance.createSchemaIfNotExists(); err != nil {
		return nil, err
	}

	return &instance, nil
}

func (s *Mysql) Load() (State, error) {
	var raw []byte

	err := s.db.QueryRow(`
        SELECT payload
        FROM app_states
        WHERE state_key = ?
    `, StateKey).Scan(&raw)

	if err == sql.ErrNoRows {
		return State{}, ErrNoState
	}
	if err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.WithError(err).Errorf("corrupt state row %q, will reset", StateKey)
		return State{}, ErrNoState
	}

	return state, nil
}

func (s *Mysql) Save(state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
        INSERT INTO app_states (state_key, payload)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE payload = VALUES(payload)
    `, StateKey, raw)

	return err
}

func (s *Mysql) createSchemaIfNotExists() error {
	q := `
        CREATE TABLE IF NOT EXISTS app_states (
            id INT PRIMARY KEY AUTO_INCREMENT,
            state_key VARCHAR(64) UNIQUE,
            payload MEDIUMTEXT,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
        ) ENGINE=INNODB
    `

	if _, err := s.db.Exec(q); err != nil {
		return err
	}

	return nil
}
