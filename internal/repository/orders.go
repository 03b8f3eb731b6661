package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cuenty/internal/model"
)

// OrderFilter задаёт условия постраничной выборки заказов.
type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
	Offset int
}

// Сводка заказа берёт название сервиса и плана только из первой позиции.
const orderSummarySelect = `SELECT o.id, o.codigo::text, o.celular, o.cliente_id, o.total, o.estado,
	o.fecha_creacion, o.fecha_pago, o.fecha_entrega, o.instrucciones_pago, o.notas_admin,
	COALESCE(fi.servicio_nombre, ''), COALESCE(fi.plan_nombre, '')
	FROM ordenes o
	LEFT JOIN LATERAL (
		SELECT s.nombre AS servicio_nombre, p.nombre AS plan_nombre
		FROM orden_items i
		JOIN planes p ON p.id = i.plan_id
		JOIN servicios s ON s.id = p.servicio_id
		WHERE i.orden_id = o.id
		ORDER BY i.id
		LIMIT 1
	) fi ON TRUE`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(&o.ID, &o.Code, &o.Phone, &o.CustomerID, &o.Total, &status,
		&o.CreatedAt, &o.PaidAt, &o.DeliveredAt, &o.PaymentInstructions, &o.AdminNotes,
		&o.ServiceName, &o.PlanName)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

const itemSelect = `SELECT i.id, i.orden_id, i.plan_id, i.cuenta_id, i.cantidad, i.precio_unitario,
	i.subtotal, i.estado, i.fecha_vencimiento, i.credenciales_entregadas, s.nombre, p.nombre
	FROM orden_items i
	JOIN planes p ON p.id = i.plan_id
	JOIN servicios s ON s.id = p.servicio_id`

func scanItem(row pgx.Row) (*model.OrderItem, error) {
	var (
		it     model.OrderItem
		status string
	)
	err := row.Scan(&it.ID, &it.OrderID, &it.PlanID, &it.AccountID, &it.Quantity, &it.UnitPrice,
		&it.Subtotal, &status, &it.ExpiresAt, &it.CredentialsDelivered, &it.ServiceName, &it.PlanName)
	if err != nil {
		return nil, err
	}
	it.Status = model.ItemStatus(status)
	return &it, nil
}

// CreateOrder сохраняет заказ вместе с позициями в одной транзакции.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order, items []model.OrderItem) (*model.OrderDetail, error) {
	var orderID int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO ordenes (codigo, celular, cliente_id, total, estado, instrucciones_pago, notas_admin)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			o.Code, o.Phone, o.CustomerID, o.Total, string(o.Status), o.PaymentInstructions, o.AdminNotes,
		).Scan(&orderID)
		if err != nil {
			return mapWriteError(err, "create order")
		}

		for _, it := range items {
			_, err := tx.Exec(ctx,
				`INSERT INTO orden_items (orden_id, plan_id, cantidad, precio_unitario, subtotal, estado)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, it.PlanID, it.Quantity, it.UnitPrice, it.Subtotal, string(it.Status),
			)
			if err != nil {
				return mapWriteError(err, fmt.Sprintf("create order item for plan %d", it.PlanID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetOrder(ctx, orderID)
}

func (r *PostgresRepository) getOrderSummary(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderSummarySelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("order %d", id))
	}
	return o, nil
}

// GetOrder возвращает сводку заказа и полный список его позиций.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error) {
	o, err := r.getOrderSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, itemSelect+` WHERE i.orden_id = $1 ORDER BY i.id`, id)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, *it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &model.OrderDetail{Order: *o, Items: items}, nil
}

// GetOrderItem возвращает позицию заказа по идентификатору.
func (r *PostgresRepository) GetOrderItem(ctx context.Context, id int64) (*model.OrderItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, itemSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("order item %d", id))
	}
	return it, nil
}

// ListOrders возвращает страницу сводок заказов и общее количество подходящих заказов.
func (r *PostgresRepository) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ordenes WHERE $1::text = '' OR estado = $1`, string(f.Status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	limit, offset := limitOffset(f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx,
		orderSummarySelect+`
		 WHERE $1::text = '' OR o.estado = $1
		 ORDER BY o.fecha_creacion DESC, o.id DESC
		 LIMIT $2 OFFSET $3`,
		string(f.Status), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return orders, total, nil
}

// UpdateOrder блокирует заказ, применяет к нему fn и сохраняет статус, отметки времени и заметки.
// При переходе в cancelada ещё не назначенные позиции отменяются в той же транзакции.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, id int64, fn func(o *model.Order) error) (*model.Order, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var (
			o      model.Order
			status string
		)
		err := tx.QueryRow(ctx,
			`SELECT id, estado, fecha_pago, fecha_entrega, notas_admin
			 FROM ordenes WHERE id = $1 FOR UPDATE`, id,
		).Scan(&o.ID, &status, &o.PaidAt, &o.DeliveredAt, &o.AdminNotes)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("order %d", id))
		}
		o.Status = model.OrderStatus(status)

		if err := fn(&o); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE ordenes SET estado = $2, fecha_pago = $3, fecha_entrega = $4, notas_admin = $5
			 WHERE id = $1`,
			id, string(o.Status), o.PaidAt, o.DeliveredAt, o.AdminNotes,
		)
		if err != nil {
			return mapWriteError(err, fmt.Sprintf("update order %d", id))
		}

		if o.Status == model.OrderStatusCancelled {
			_, err = tx.Exec(ctx,
				`UPDATE orden_items SET estado = $2
				 WHERE orden_id = $1 AND cuenta_id IS NULL AND estado = $3`,
				id, string(model.ItemStatusCancelled), string(model.ItemStatusPending),
			)
			if err != nil {
				return fmt.Errorf("cancel order items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.getOrderSummary(ctx, id)
}

// DeleteOrder удаляет заказ с позициями и освобождает аккаунты, на которые больше никто не ссылается.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM ordenes WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("order %d", id))
		}

		rows, err := tx.Query(ctx,
			`SELECT DISTINCT cuenta_id FROM orden_items WHERE orden_id = $1 AND cuenta_id IS NOT NULL`, id)
		if err != nil {
			return fmt.Errorf("select order accounts: %w", err)
		}
		accounts, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("collect order accounts: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM ordenes WHERE id = $1`, id); err != nil {
			return mapWriteError(err, fmt.Sprintf("delete order %d", id))
		}

		if len(accounts) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx,
			`UPDATE cuentas c SET estado = $2
			 WHERE c.id = ANY($1) AND c.estado = $3
			   AND NOT EXISTS (SELECT 1 FROM orden_items i WHERE i.cuenta_id = c.id)`,
			accounts, string(model.AccountStatusAvailable), string(model.AccountStatusAssigned),
		)
		if err != nil {
			return fmt.Errorf("release accounts: %w", err)
		}
		return nil
	})
}

// ExpireItems помечает просроченные позиции как vencido и возвращает на склад аккаунты,
// у которых не осталось действующих позиций.
func (r *PostgresRepository) ExpireItems(ctx context.Context, now time.Time) (int64, int64, error) {
	var expired, released int64

	err := r.withRetry(ctx, func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				`UPDATE orden_items SET estado = $2
				 WHERE fecha_vencimiento < $1 AND estado IN ($3, $4)`,
				now, string(model.ItemStatusExpired),
				string(model.ItemStatusAssigned), string(model.ItemStatusDelivered),
			)
			if err != nil {
				return fmt.Errorf("expire items: %w", err)
			}
			expired = tag.RowsAffected()

			tag, err = tx.Exec(ctx,
				`UPDATE cuentas c SET estado = $1
				 WHERE c.estado = $2
				   AND NOT EXISTS (
				       SELECT 1 FROM orden_items i
				       WHERE i.cuenta_id = c.id AND i.estado IN ($3, $4)
				   )`,
				string(model.AccountStatusAvailable), string(model.AccountStatusAssigned),
				string(model.ItemStatusAssigned), string(model.ItemStatusDelivered),
			)
			if err != nil {
				return fmt.Errorf("release accounts: %w", err)
			}
			released = tag.RowsAffected()
			return nil
		})
	})
	if err != nil {
		return 0, 0, err
	}

	return expired, released, nil
}
