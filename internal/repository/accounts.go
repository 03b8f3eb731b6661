package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cuenty/internal/model"
)

// AccountFilter задаёт условия выборки аккаунтов склада.
type AccountFilter struct {
	PlanID    int64
	ServiceID int64
	Status    model.AccountStatus
}

const accountColumns = `c.id, c.plan_id, c.correo_codificado, c.contrasena_codificada, c.perfil, c.pin,
	c.notas, c.estado, c.fecha_agregada, p.servicio_id, s.nombre, p.nombre`

const accountFrom = ` FROM cuentas c
	JOIN planes p ON p.id = c.plan_id
	JOIN servicios s ON s.id = p.servicio_id`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a      model.Account
		status string
	)
	err := row.Scan(&a.ID, &a.PlanID, &a.EncodedEmail, &a.EncodedPassword, &a.Profile, &a.PIN,
		&a.Notes, &status, &a.AddedAt, &a.ServiceID, &a.ServiceName, &a.PlanName)
	if err != nil {
		return nil, err
	}
	a.Status = model.AccountStatus(status)
	return &a, nil
}

// CreateAccount сохраняет аккаунт на складе. Учётные данные должны быть уже закодированы.
func (r *PostgresRepository) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cuentas (plan_id, correo_codificado, contrasena_codificada, perfil, pin, notas, estado)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		a.PlanID, a.EncodedEmail, a.EncodedPassword, a.Profile, a.PIN, a.Notes, string(a.Status),
	).Scan(&id)
	if err != nil {
		return nil, mapWriteError(err, fmt.Sprintf("create account for plan %d", a.PlanID))
	}
	return r.GetAccount(ctx, id)
}

// UpdateAccount обновляет аккаунт. Назначенный аккаунт сохраняет статус asignada.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cuentas
		 SET plan_id = $2, correo_codificado = $3, contrasena_codificada = $4, perfil = $5,
		     pin = $6, notas = $7,
		     estado = CASE WHEN estado = $9 THEN estado ELSE $8 END
		 WHERE id = $1`,
		a.ID, a.PlanID, a.EncodedEmail, a.EncodedPassword, a.Profile, a.PIN, a.Notes,
		string(a.Status), string(model.AccountStatusAssigned),
	)
	if err != nil {
		return nil, mapWriteError(err, fmt.Sprintf("update account %d", a.ID))
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, a.ID)
	}
	return r.GetAccount(ctx, a.ID)
}

// GetAccount возвращает аккаунт по идентификатору.
func (r *PostgresRepository) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+accountFrom+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("account %d", id))
	}
	return a, nil
}

// ListAccounts возвращает аккаунты склада, отфильтрованные по плану, сервису и статусу.
func (r *PostgresRepository) ListAccounts(ctx context.Context, f AccountFilter) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+accountFrom+`
		 WHERE ($1::bigint = 0 OR c.plan_id = $1)
		   AND ($2::bigint = 0 OR p.servicio_id = $2)
		   AND ($3::text = '' OR c.estado = $3)
		 ORDER BY c.fecha_agregada DESC, c.id DESC`,
		f.PlanID, f.ServiceID, string(f.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var res []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// DeleteAccount удаляет аккаунт, если на него не ссылаются позиции заказов.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM cuentas WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("account %d", id))
		}

		var items int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM orden_items WHERE cuenta_id = $1`, id).Scan(&items); err != nil {
			return fmt.Errorf("count account references: %w", err)
		}
		if items > 0 {
			return fmt.Errorf("%w: account %d is used by %d order items", ErrHasDependencies, id, items)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cuentas WHERE id = $1`, id); err != nil {
			return mapWriteError(err, fmt.Sprintf("delete account %d", id))
		}
		return nil
	})
}

// AssignAccount назначает аккаунт позиции заказа в одной транзакции.
// Если accountID не задан, выбирается самый старый свободный аккаунт плана позиции.
// Срок действия позиции отсчитывается от now на длительность плана в днях.
func (r *PostgresRepository) AssignAccount(ctx context.Context, itemID int64, accountID *int64, now time.Time) (*model.OrderItem, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var (
			planID    int64
			current   *int64
			days      int
			itemState string
		)
		err := tx.QueryRow(ctx,
			`SELECT i.plan_id, i.cuenta_id, p.duracion_dias, i.estado
			 FROM orden_items i JOIN planes p ON p.id = i.plan_id
			 WHERE i.id = $1
			 FOR UPDATE OF i`, itemID,
		).Scan(&planID, &current, &days, &itemState)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("order item %d", itemID))
		}
		if current != nil {
			return fmt.Errorf("%w: item %d has account %d", ErrAlreadyAssigned, itemID, *current)
		}
		if model.ItemStatus(itemState) == model.ItemStatusCancelled {
			return fmt.Errorf("%w: item %d is cancelled", ErrAccountUnusable, itemID)
		}

		var chosen int64
		if accountID != nil {
			var (
				accPlan   int64
				accStatus string
			)
			err := tx.QueryRow(ctx,
				`SELECT plan_id, estado FROM cuentas WHERE id = $1 FOR UPDATE`, *accountID,
			).Scan(&accPlan, &accStatus)
			if err != nil {
				return mapNoRows(err, fmt.Sprintf("account %d", *accountID))
			}
			if accPlan != planID || model.AccountStatus(accStatus) != model.AccountStatusAvailable {
				return fmt.Errorf("%w: account %d (plan %d, %s) for item %d (plan %d)",
					ErrAccountUnusable, *accountID, accPlan, accStatus, itemID, planID)
			}
			chosen = *accountID
		} else {
			err := tx.QueryRow(ctx,
				`SELECT id FROM cuentas
				 WHERE plan_id = $1 AND estado = $2
				 ORDER BY fecha_agregada, id
				 LIMIT 1
				 FOR UPDATE SKIP LOCKED`,
				planID, string(model.AccountStatusAvailable),
			).Scan(&chosen)
			if err != nil {
				if isNoRows(err) {
					return fmt.Errorf("%w: plan %d", ErrNoAvailableAccount, planID)
				}
				return fmt.Errorf("select available account: %w", err)
			}
		}

		expires := now.AddDate(0, 0, days)

		_, err = tx.Exec(ctx,
			`UPDATE orden_items SET cuenta_id = $2, estado = $3, fecha_vencimiento = $4 WHERE id = $1`,
			itemID, chosen, string(model.ItemStatusAssigned), expires,
		)
		if err != nil {
			return fmt.Errorf("update order item: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE cuentas SET estado = $2 WHERE id = $1`,
			chosen, string(model.AccountStatusAssigned),
		)
		if err != nil {
			return fmt.Errorf("update account status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetOrderItem(ctx, itemID)
}

// DeliverItem отмечает выдачу учётных данных по позиции и возвращает позицию и её аккаунт.
func (r *PostgresRepository) DeliverItem(ctx context.Context, itemID int64) (*model.OrderItem, *model.Account, error) {
	var accountID int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var (
			current *int64
			state   string
		)
		err := tx.QueryRow(ctx,
			`SELECT cuenta_id, estado FROM orden_items WHERE id = $1 FOR UPDATE`, itemID,
		).Scan(&current, &state)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("order item %d", itemID))
		}
		if current == nil {
			return fmt.Errorf("%w: item %d", ErrNotAssigned, itemID)
		}
		accountID = *current

		tag, err := tx.Exec(ctx,
			`UPDATE orden_items SET credenciales_entregadas = TRUE, estado = $2
			 WHERE id = $1 AND estado IN ($3, $2)`,
			itemID, string(model.ItemStatusDelivered), string(model.ItemStatusAssigned),
		)
		if err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: item %d is %s", ErrNotAssigned, itemID, state)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	item, err := r.GetOrderItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	account, err := r.GetAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return item, account, nil
}
