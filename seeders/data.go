package seeders

var materialsData = []struct {
	Name        string
	Price       int64
	Description string
}{
	// --- Кабели ---
	{Name: "Кабель оптический Drop FTTH (м)", Price: 2500, Description: "Абонентский оптический кабель для подключения"},
	{Name: "Кабель UTP cat.5e (м)", Price: 1800, Description: "Витая пара для внутренней разводки"},
	{Name: "Патч-корд SC/UPC 3м", Price: 15000, Description: "Готовый оптический шнур"},

	// --- Пассивное оборудование ---
	{Name: "Коннектор SC/UPC быстрый", Price: 9000, Description: "Быстрый оптический коннектор"},
	{Name: "Коннектор RJ-45", Price: 1200, Description: "Разъем для витой пары"},
	{Name: "Розетка оптическая абонентская", Price: 22000, Description: "Абонентская оптическая розетка"},
	{Name: "Сплиттер 1x8", Price: 85000, Description: "Оптический делитель"},

	// --- Активное оборудование ---
	{Name: "ONU терминал", Price: 350000, Description: "Абонентский оптический терминал"},
	{Name: "Wi-Fi роутер", Price: 420000, Description: "Абонентский маршрутизатор"},

	// --- Расходники ---
	{Name: "Стяжка кабельная (уп. 100 шт)", Price: 12000, Description: "Нейлоновые стяжки"},
	{Name: "Крепеж-клипса для кабеля (уп. 50 шт)", Price: 8000, Description: "Клипсы для крепления кабеля к стене"},
}

var demoUsersData = []struct {
	FIO      string
	Phone    string
	Role     string
	Password string
}{
	{FIO: "Демо Клиент", Phone: "+998900000001", Role: "client", Password: "client123"},
	{FIO: "Демо Младший менеджер", Phone: "+998900000002", Role: "junior_manager", Password: "jmanager123"},
	{FIO: "Демо Контролер", Phone: "+998900000003", Role: "controller", Password: "controller123"},
	{FIO: "Демо Техник", Phone: "+998900000004", Role: "technician", Password: "technician123"},
	{FIO: "Демо Склад", Phone: "+998900000005", Role: "warehouse", Password: "warehouse123"},
	{FIO: "Демо Менеджер", Phone: "+998900000006", Role: "manager", Password: "manager123"},
}

// Стартовый лимит расхода на техника по каждой позиции каталога.
const defaultAllotmentQuantity = 20
