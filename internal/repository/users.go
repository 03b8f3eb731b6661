package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cuenty/internal/model"
)

const customerColumns = `id, correo, contrasena_hash, nombre, apellido, telefono, whatsapp,
	verificado, activo, fecha_creacion, fecha_actualizacion`

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Phone,
		&c.WhatsApp, &c.Verified, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomer создаёт покупателя. Email уникален без учёта регистра.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	created, err := scanCustomer(r.pool.QueryRow(ctx,
		`INSERT INTO clientes (correo, contrasena_hash, nombre, apellido, telefono, whatsapp, verificado, activo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+customerColumns,
		c.Email, c.PasswordHash, c.FirstName, c.LastName, c.Phone, c.WhatsApp, c.Verified, c.Active,
	))
	if err != nil {
		return nil, mapWriteError(err, "create customer "+c.Email)
	}
	return created, nil
}

// GetCustomer возвращает покупателя по идентификатору.
func (r *PostgresRepository) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM clientes WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("customer %d", id))
	}
	return c, nil
}

// ListCustomers возвращает страницу покупателей и их общее количество.
func (r *PostgresRepository) ListCustomers(ctx context.Context, limit, offset int) ([]model.Customer, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clientes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	l, o := limitOffset(limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM clientes
		 ORDER BY fecha_creacion DESC, id DESC
		 LIMIT $1 OFFSET $2`, l, o)
	if err != nil {
		return nil, 0, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	res := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// UpdateCustomer обновляет профиль и флаги покупателя. Пароль не меняется.
func (r *PostgresRepository) UpdateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	updated, err := scanCustomer(r.pool.QueryRow(ctx,
		`UPDATE clientes
		 SET nombre = $2, apellido = $3, telefono = $4, whatsapp = $5, verificado = $6, activo = $7,
		     fecha_actualizacion = NOW()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.FirstName, c.LastName, c.Phone, c.WhatsApp, c.Verified, c.Active,
	))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("customer %d", c.ID))
	}
	return updated, nil
}

// DeleteCustomer удаляет покупателя, если у него нет заказов.
func (r *PostgresRepository) DeleteCustomer(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM clientes WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("customer %d", id))
		}

		var orders int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM ordenes WHERE cliente_id = $1`, id).Scan(&orders); err != nil {
			return fmt.Errorf("count customer orders: %w", err)
		}
		if orders > 0 {
			return fmt.Errorf("%w: customer %d has %d orders", ErrHasDependencies, id, orders)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id); err != nil {
			return mapWriteError(err, fmt.Sprintf("delete customer %d", id))
		}
		return nil
	})
}

const adminColumns = `id, usuario, contrasena_hash, correo, fecha_creacion`

func scanAdmin(row pgx.Row) (*model.Admin, error) {
	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdmin создаёт администратора. Имя пользователя и email уникальны.
func (r *PostgresRepository) CreateAdmin(ctx context.Context, a *model.Admin) (*model.Admin, error) {
	created, err := scanAdmin(r.pool.QueryRow(ctx,
		`INSERT INTO admins (usuario, contrasena_hash, correo)
		 VALUES ($1, $2, $3)
		 RETURNING `+adminColumns,
		a.Username, a.PasswordHash, a.Email,
	))
	if err != nil {
		return nil, mapWriteError(err, "create admin "+a.Username)
	}
	return created, nil
}

// GetAdminByEmail возвращает администратора по email без учёта регистра.
func (r *PostgresRepository) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	a, err := scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE LOWER(correo) = LOWER($1)`, email))
	if err != nil {
		return nil, mapNoRows(err, "admin "+email)
	}
	return a, nil
}

// ListAdmins возвращает всех администраторов.
func (r *PostgresRepository) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select admins: %w", err)
	}
	defer rows.Close()

	res := []model.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		res = append(res, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
