package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/cuenty/internal/model"
)

const serviceColumns = `id, nombre, descripcion, logo_url, activo, fecha_creacion`

func scanService(row pgx.Row) (*model.Service, error) {
	var s model.Service
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.LogoURL, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateService создаёт сервис. Имя уникально без учёта регистра.
func (r *PostgresRepository) CreateService(ctx context.Context, s *model.Service) (*model.Service, error) {
	created, err := scanService(r.pool.QueryRow(ctx,
		`INSERT INTO servicios (nombre, descripcion, logo_url, activo)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+serviceColumns,
		s.Name, s.Description, s.LogoURL, s.Active,
	))
	if err != nil {
		return nil, mapWriteError(err, "create service "+s.Name)
	}
	return created, nil
}

// UpdateService обновляет сервис.
func (r *PostgresRepository) UpdateService(ctx context.Context, s *model.Service) (*model.Service, error) {
	updated, err := scanService(r.pool.QueryRow(ctx,
		`UPDATE servicios SET nombre = $2, descripcion = $3, logo_url = $4, activo = $5
		 WHERE id = $1
		 RETURNING `+serviceColumns,
		s.ID, s.Name, s.Description, s.LogoURL, s.Active,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, mapNoRows(err, fmt.Sprintf("service %d", s.ID))
		}
		return nil, mapWriteError(err, "update service "+s.Name)
	}
	return updated, nil
}

// GetService возвращает сервис по идентификатору.
func (r *PostgresRepository) GetService(ctx context.Context, id int64) (*model.Service, error) {
	s, err := scanService(r.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM servicios WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("service %d", id))
	}
	return s, nil
}

// ListServices возвращает все сервисы, упорядоченные по имени.
func (r *PostgresRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM servicios ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var res []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		res = append(res, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// DeleteService удаляет сервис, если у него нет планов.
func (r *PostgresRepository) DeleteService(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM servicios WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("service %d", id))
		}

		var plans int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM planes WHERE servicio_id = $1`, id).Scan(&plans); err != nil {
			return fmt.Errorf("count plans: %w", err)
		}
		if plans > 0 {
			return fmt.Errorf("%w: service %d has %d plans", ErrHasDependencies, id, plans)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM servicios WHERE id = $1`, id); err != nil {
			return mapWriteError(err, fmt.Sprintf("delete service %d", id))
		}
		return nil
	})
}

const planColumns = `p.id, p.servicio_id, s.nombre, p.nombre, p.duracion_meses, p.duracion_dias,
	p.costo, p.margen, p.precio_venta, p.activo, p.fecha_creacion`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.ServiceID, &p.ServiceName, &p.Name, &p.DurationMonths, &p.DurationDays,
		&p.Cost, &p.Margin, &p.SalePrice, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan создаёт план. План уникален в пределах сервиса по длительности.
func (r *PostgresRepository) CreatePlan(ctx context.Context, p *model.Plan) (*model.Plan, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO planes (servicio_id, nombre, duracion_meses, costo, margen, precio_venta, activo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.ServiceID, p.Name, p.DurationMonths, p.Cost, p.Margin, p.SalePrice, p.Active,
	).Scan(&id)
	if err != nil {
		return nil, mapWriteError(err, fmt.Sprintf("create plan %d months for service %d", p.DurationMonths, p.ServiceID))
	}
	return r.GetPlan(ctx, id)
}

// UpdatePlan обновляет план.
func (r *PostgresRepository) UpdatePlan(ctx context.Context, p *model.Plan) (*model.Plan, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE planes SET servicio_id = $2, nombre = $3, duracion_meses = $4,
		        costo = $5, margen = $6, precio_venta = $7, activo = $8
		 WHERE id = $1`,
		p.ID, p.ServiceID, p.Name, p.DurationMonths, p.Cost, p.Margin, p.SalePrice, p.Active,
	)
	if err != nil {
		return nil, mapWriteError(err, fmt.Sprintf("update plan %d", p.ID))
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: plan %d", ErrNotFound, p.ID)
	}
	return r.GetPlan(ctx, p.ID)
}

// GetPlan возвращает план по идентификатору.
func (r *PostgresRepository) GetPlan(ctx context.Context, id int64) (*model.Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planColumns+`
		 FROM planes p JOIN servicios s ON s.id = p.servicio_id
		 WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("plan %d", id))
	}
	return p, nil
}

// ListPlans возвращает планы; serviceID = 0 означает все сервисы.
func (r *PostgresRepository) ListPlans(ctx context.Context, serviceID int64) ([]model.Plan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+planColumns+`
		 FROM planes p JOIN servicios s ON s.id = p.servicio_id
		 WHERE $1::bigint = 0 OR p.servicio_id = $1
		 ORDER BY s.nombre, p.duracion_meses`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	defer rows.Close()

	var res []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// FirstPlanForService возвращает план сервиса с наименьшим идентификатором.
func (r *PostgresRepository) FirstPlanForService(ctx context.Context, serviceID int64) (*model.Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planColumns+`
		 FROM planes p JOIN servicios s ON s.id = p.servicio_id
		 WHERE p.servicio_id = $1
		 ORDER BY p.id
		 LIMIT 1`, serviceID))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("plan for service %d", serviceID))
	}
	return p, nil
}

// DeletePlan удаляет план, если на него не ссылаются аккаунты и позиции заказов.
func (r *PostgresRepository) DeletePlan(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM planes WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return mapNoRows(err, fmt.Sprintf("plan %d", id))
		}

		var accounts, items int
		err = tx.QueryRow(ctx,
			`SELECT (SELECT COUNT(*) FROM cuentas WHERE plan_id = $1),
			        (SELECT COUNT(*) FROM orden_items WHERE plan_id = $1)`, id,
		).Scan(&accounts, &items)
		if err != nil {
			return fmt.Errorf("count plan references: %w", err)
		}
		if accounts > 0 || items > 0 {
			return fmt.Errorf("%w: plan %d has %d accounts and %d order items", ErrHasDependencies, id, accounts, items)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM planes WHERE id = $1`, id); err != nil {
			return mapWriteError(err, fmt.Sprintf("delete plan %d", id))
		}
		return nil
	})
}

// ListCatalog возвращает активные сервисы с активными планами и числом свободных аккаунтов.
func (r *PostgresRepository) ListCatalog(ctx context.Context) ([]model.CatalogService, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.nombre, s.descripcion, s.logo_url, s.activo, s.fecha_creacion,
		        p.id, p.nombre, p.duracion_meses, p.duracion_dias, p.costo, p.margen, p.precio_venta,
		        p.activo, p.fecha_creacion,
		        (SELECT COUNT(*) FROM cuentas c WHERE c.plan_id = p.id AND c.estado = $1)
		 FROM servicios s
		 LEFT JOIN planes p ON p.servicio_id = s.id AND p.activo
		 WHERE s.activo
		 ORDER BY s.nombre, p.duracion_meses`,
		string(model.AccountStatusAvailable),
	)
	if err != nil {
		return nil, fmt.Errorf("select catalog: %w", err)
	}
	defer rows.Close()

	var res []model.CatalogService
	for rows.Next() {
		var (
			s          model.Service
			planID     *int64
			planName   *string
			months     *int
			days       *int
			cost       decimal.NullDecimal
			margin     decimal.NullDecimal
			salePrice  decimal.NullDecimal
			planActive *bool
			planAt     *time.Time
			available  int
		)
		err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.LogoURL, &s.Active, &s.CreatedAt,
			&planID, &planName, &months, &days, &cost, &margin, &salePrice, &planActive, &planAt, &available)
		if err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}

		if len(res) == 0 || res[len(res)-1].ID != s.ID {
			res = append(res, model.CatalogService{Service: s, Plans: []model.CatalogPlan{}})
		}
		if planID == nil {
			continue
		}

		cur := &res[len(res)-1]
		cur.Plans = append(cur.Plans, model.CatalogPlan{
			Plan: model.Plan{
				ID:             *planID,
				ServiceID:      s.ID,
				ServiceName:    s.Name,
				Name:           *planName,
				DurationMonths: *months,
				DurationDays:   *days,
				Cost:           cost.Decimal,
				Margin:         margin.Decimal,
				SalePrice:      salePrice.Decimal,
				Active:         *planActive,
				CreatedAt:      *planAt,
			},
			Available: available,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
