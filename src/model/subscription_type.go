package model

import (
	"database/sql"
	"time"

	"github.com/merkaz770/shluchim/backend/src/models"
)

const subscriptionTypeColumns = `id, name, monthly_cost, created_at, updated_at`

func CreateSubscriptionType(db *sql.DB, sub *models.SubscriptionType) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	res, err := db.Exec(
		`INSERT INTO subscription_types (name, monthly_cost, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		sub.Name, sub.MonthlyCost, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sub.ID = id
	return nil
}

func GetSubscriptionType(db *sql.DB, id int64) (*models.SubscriptionType, error) {
	row := db.QueryRow(`SELECT `+subscriptionTypeColumns+` FROM subscription_types WHERE id = ?`, id)
	var sub models.SubscriptionType
	if err := row.Scan(&sub.ID, &sub.Name, &sub.MonthlyCost, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

func ListSubscriptionTypes(db *sql.DB) ([]models.SubscriptionType, error) {
	rows, err := db.Query(`SELECT ` + subscriptionTypeColumns + ` FROM subscription_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.SubscriptionType
	for rows.Next() {
		var sub models.SubscriptionType
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.MonthlyCost, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func UpdateSubscriptionType(db *sql.DB, sub *models.SubscriptionType) error {
	sub.UpdatedAt = time.Now()
	_, err := db.Exec(
		`UPDATE subscription_types SET name = ?, monthly_cost = ?, updated_at = ? WHERE id = ?`,
		sub.Name, sub.MonthlyCost, sub.UpdatedAt, sub.ID)
	return err
}

func DeleteSubscriptionType(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM subscription_types WHERE id = ?`, id)
	return err
}
