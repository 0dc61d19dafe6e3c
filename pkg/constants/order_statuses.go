package constants

// --- СТАТУСЫ ЗАЯВОК (совпадает со значениями в БД) ---
//
// Единый словарь для всех трёх видов заявок. Какие статусы достижимы для
// конкретного вида — определяет таблица переходов в services/routing.
const (
	StatusNew                          = "new"
	StatusInManager                    = "in_manager"
	StatusInJuniorManager              = "in_junior_manager"
	StatusInController                 = "in_controller"
	StatusBetweenControllerTechnician  = "between_controller_technician"
	StatusInTechnician                 = "in_technician"
	StatusInTechnicianWork             = "in_technician_work"
	StatusInWarehouse                  = "in_warehouse"
	StatusCompleted                    = "completed"
	StatusCancelled                    = "cancelled"
)

// Финальные статусы
var FinalStatuses = []string{
	StatusCompleted,
	StatusCancelled,
}

func IsFinalStatus(status string) bool {
	for _, s := range FinalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PreWorkStatuses - статусы до начала работ; из любого из них заявку
// может отменить текущий владелец.
var PreWorkStatuses = []string{
	StatusNew,
	StatusInManager,
	StatusInJuniorManager,
	StatusInController,
	StatusBetweenControllerTechnician,
	StatusInTechnician,
}

func IsPreWorkStatus(status string) bool {
	for _, s := range PreWorkStatuses {
		if s == status {
			return true
		}
	}
	return false
}
