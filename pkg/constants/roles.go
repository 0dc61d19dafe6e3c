package constants

// --- РОЛИ УЧАСТНИКОВ WORKFLOW (совпадает с кодами в БД) ---
const (
	RoleClient        = "client"
	RoleJuniorManager = "junior_manager"
	RoleController    = "controller"
	RoleTechnician    = "technician"
	RoleWarehouse     = "warehouse"
	RoleManager       = "manager"
	RoleAdmin         = "admin"
)

var AllRoles = []string{
	RoleClient,
	RoleJuniorManager,
	RoleController,
	RoleTechnician,
	RoleWarehouse,
	RoleManager,
	RoleAdmin,
}

func IsKnownRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
