package models

type Workspace struct {
	BaseModel
	Name string `json:"name" validate:"required" gorm:"not null;unique"`
}

func CreateWorkspace(workspace *Workspace) error {
	return db.Create(workspace).Error
}

func FindWorkspace(id interface{}) (*Workspace, error) {
	workspace := Workspace{}
	err := db.First(&workspace, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &workspace, nil
}

func AllWorkspaces() ([]Workspace, error) {
	workspaces := []Workspace{}
	err := db.Find(&workspaces).Error
	if err != nil {
		return nil, err
	}

	return workspaces, nil
}

func DefaultWorkspace() (*Workspace, error) {
	workspace := Workspace{}
	err := db.First(&workspace).Error
	if err != nil {
		return nil, err
	}

	return &workspace, nil
}
