package app

import (
	"fmt"

	auditRepository "github.com/allisson/identity/internal/audit/repository"
	auditUseCase "github.com/allisson/identity/internal/audit/usecase"
)

// AuditRepository returns the audit event repository based on database driver.
func (c *Container) AuditRepository() (auditUseCase.AuditEventRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditRecorder returns the asynchronous audit recorder.
// Its worker is started on first access and stopped by Shutdown.
func (c *Container) AuditRecorder() (*auditUseCase.AuditRecorder, error) {
	var err error
	c.auditRecorderInit.Do(func() {
		c.auditRecorder, err = c.initAuditRecorder()
		if err != nil {
			c.initErrors["auditRecorder"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRecorder"]; exists {
		return nil, storedErr
	}
	return c.auditRecorder, nil
}

// AuditUseCase returns the audit trail query use case.
func (c *Container) AuditUseCase() (auditUseCase.UseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		c.auditUseCase, err = c.initAuditUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// initAuditRepository creates the audit event repository instance.
func (c *Container) initAuditRepository() (auditUseCase.AuditEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return auditRepository.NewMySQLAuditRepository(db), nil
	case "postgres":
		return auditRepository.NewPostgreSQLAuditRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditRecorder creates the audit recorder and starts its worker.
func (c *Container) initAuditRecorder() (*auditUseCase.AuditRecorder, error) {
	auditRepo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit recorder: %w", err)
	}

	return auditUseCase.NewAuditRecorder(auditRepo, c.config.AuditBufferSize), nil
}

// initAuditUseCase creates the audit query use case.
func (c *Container) initAuditUseCase() (auditUseCase.UseCase, error) {
	auditRepo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit use case: %w", err)
	}

	return auditUseCase.NewAuditUseCase(auditRepo), nil
}
