// Package profile содержит доменную модель пользователя LuckCash.
//
// Это ядро бизнес-логики системы "LuckCash". Пакет определяет:
//
//   - Сущности (Entities): Profile, StreakState
//   - Политики: StreakPolicy (правила продления серии активных дней)
//   - Интерфейсы репозиториев: Repository, Cache
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Rich Domain Model - бизнес-логика инкапсулирована в сущностях
//
// # Философия проекта
//
// "Учись управлять деньгами играя" - профиль аккумулирует результаты
// обучения: монеты, очки опыта, уровень и серию активных дней.
// Все изменения проходят через операции леджера прогресса и всегда
// инициируются самим пользователем.
//
// # Основные сущности
//
// Profile - центральная сущность, представляющая пользователя:
//
//	profile, err := NewProfile(NewProfileParams{
//	    ID:          uuid.New().String(),
//	    Email:       "user@example.com",
//	    DisplayName: "Имя Пользователя",
//	})
//
// Начисление наград за урок:
//
//	if err := profile.Credit(50, 50); err != nil {
//	    return err
//	}
//
// Серия активных дней обновляется через политику:
//
//	policy := CalendarDayPolicy{}
//	change := profile.RecordActivity(time.Now(), policy)
//	if change.Extended {
//	    // серия выросла
//	}
//
// # Инварианты
//
//   - TotalCoins никогда не уходит в минус: списание через SpendCoins
//     возвращает ошибку при нехватке баланса.
//   - LongestStreak >= CurrentStreak после любого обновления.
//   - Level не меняется автоматически при пересечении порога опыта:
//     LevelProgress возвращает производное отображаемое значение.
//
// # Конкурентный доступ
//
// Поле Version используется для оптимистичных блокировок: репозиторий
// сравнивает версию при записи и возвращает ErrOptimisticLock при
// конфликте. Обработчики команд повторяют операцию с перечитанным
// состоянием.
package profile
