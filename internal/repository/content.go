package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cuenty/internal/model"
)

const contactColumns = `id, nombre, correo, asunto, mensaje, estado, fecha_creacion`

func scanContact(row pgx.Row) (*model.ContactMessage, error) {
	var (
		m      model.ContactMessage
		status string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &status, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = model.ContactStatus(status)
	return &m, nil
}

// CreateContact сохраняет сообщение из формы обратной связи.
func (r *PostgresRepository) CreateContact(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error) {
	created, err := scanContact(r.pool.QueryRow(ctx,
		`INSERT INTO mensajes_contacto (nombre, correo, asunto, mensaje, estado)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+contactColumns,
		m.Name, m.Email, m.Subject, m.Message, string(m.Status),
	))
	if err != nil {
		return nil, mapWriteError(err, "create contact message")
	}
	return created, nil
}

// ListContacts возвращает страницу сообщений (новые первыми) и их общее количество.
func (r *PostgresRepository) ListContacts(ctx context.Context, status model.ContactStatus, limit, offset int) ([]model.ContactMessage, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mensajes_contacto WHERE $1::text = '' OR estado = $1`, string(status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	l, o := limitOffset(limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM mensajes_contacto
		 WHERE $1::text = '' OR estado = $1
		 ORDER BY fecha_creacion DESC, id DESC
		 LIMIT $2 OFFSET $3`, string(status), l, o)
	if err != nil {
		return nil, 0, fmt.Errorf("select contacts: %w", err)
	}
	defer rows.Close()

	res := []model.ContactMessage{}
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		res = append(res, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// UpdateContactStatus меняет статус обработки сообщения.
func (r *PostgresRepository) UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) (*model.ContactMessage, error) {
	m, err := scanContact(r.pool.QueryRow(ctx,
		`UPDATE mensajes_contacto SET estado = $2 WHERE id = $1 RETURNING `+contactColumns,
		id, string(status),
	))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("contact message %d", id))
	}
	return m, nil
}

const siteConfigColumns = `nombre_sitio, hero_titulo, hero_subtitulo, stat_clientes, stat_servicios,
	stat_soporte, logo_url, logo_footer_url, whatsapp, instrucciones_pago, fecha_actualizacion`

func scanSiteConfig(row pgx.Row) (*model.SiteConfig, error) {
	var c model.SiteConfig
	err := row.Scan(&c.SiteName, &c.HeroTitle, &c.HeroSubtitle, &c.StatCustomersLabel,
		&c.StatServicesLabel, &c.StatSupportLabel, &c.LogoURL, &c.FooterLogoURL, &c.WhatsApp,
		&c.PaymentInstructions, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetSiteConfig возвращает единственную запись конфигурации сайта.
func (r *PostgresRepository) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	c, err := scanSiteConfig(r.pool.QueryRow(ctx,
		`SELECT `+siteConfigColumns+` FROM config_sitio WHERE id = 1`))
	if err != nil {
		return nil, mapNoRows(err, "site config")
	}
	return c, nil
}

// UpdateSiteConfig перезаписывает конфигурацию сайта.
func (r *PostgresRepository) UpdateSiteConfig(ctx context.Context, c *model.SiteConfig) (*model.SiteConfig, error) {
	updated, err := scanSiteConfig(r.pool.QueryRow(ctx,
		`INSERT INTO config_sitio (id, nombre_sitio, hero_titulo, hero_subtitulo, stat_clientes,
		                           stat_servicios, stat_soporte, logo_url, logo_footer_url, whatsapp,
		                           instrucciones_pago, fecha_actualizacion)
		 VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		     nombre_sitio = EXCLUDED.nombre_sitio,
		     hero_titulo = EXCLUDED.hero_titulo,
		     hero_subtitulo = EXCLUDED.hero_subtitulo,
		     stat_clientes = EXCLUDED.stat_clientes,
		     stat_servicios = EXCLUDED.stat_servicios,
		     stat_soporte = EXCLUDED.stat_soporte,
		     logo_url = EXCLUDED.logo_url,
		     logo_footer_url = EXCLUDED.logo_footer_url,
		     whatsapp = EXCLUDED.whatsapp,
		     instrucciones_pago = EXCLUDED.instrucciones_pago,
		     fecha_actualizacion = EXCLUDED.fecha_actualizacion
		 RETURNING `+siteConfigColumns,
		c.SiteName, c.HeroTitle, c.HeroSubtitle, c.StatCustomersLabel, c.StatServicesLabel,
		c.StatSupportLabel, c.LogoURL, c.FooterLogoURL, c.WhatsApp, c.PaymentInstructions,
	))
	if err != nil {
		return nil, mapWriteError(err, "update site config")
	}
	return updated, nil
}
