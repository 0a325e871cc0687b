package app

import (
	"github.com/sealedbox/sealedbox/internal/database"
	folderHTTP "github.com/sealedbox/sealedbox/internal/folder/http"
	folderRepoPkg "github.com/sealedbox/sealedbox/internal/folder/repository"
	folderUseCase "github.com/sealedbox/sealedbox/internal/folder/usecase"
)

func (c *Container) folderRepo() (folderRepoPkg.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	switch c.cfg.DBDriver {
	case "mysql":
		return folderRepoPkg.NewMySQLRepository(db), nil
	default:
		return folderRepoPkg.NewPostgreSQLRepository(db), nil
	}
}

// FolderUseCase returns the folder tree usecase. It depends on the secrets
// repository directly (not the secrets usecase) since it only needs to check
// whether a folder still contains secrets before allowing deletion.
func (c *Container) FolderUseCase() (*folderUseCase.UseCase, error) {
	if c.folderUseCase != nil {
		return c.folderUseCase, nil
	}

	repo, err := c.folderRepo()
	if err != nil {
		return nil, err
	}
	secretRepo, err := c.secretsRepo()
	if err != nil {
		return nil, err
	}
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	c.folderUseCase = folderUseCase.New(database.NewTxManager(db), repo, secretRepo)
	return c.folderUseCase, nil
}

// FolderHandler returns the folder tree HTTP handler.
func (c *Container) FolderHandler() (*folderHTTP.Handler, error) {
	if c.folderHandler != nil {
		return c.folderHandler, nil
	}
	uc, err := c.FolderUseCase()
	if err != nil {
		return nil, err
	}
	c.folderHandler = folderHTTP.NewHandler(uc, c.logger)
	return c.folderHandler, nil
}
