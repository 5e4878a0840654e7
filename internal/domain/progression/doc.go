// Package progression содержит леджер прогресса - ядро бизнес-логики LuckCash.
//
// Леджер - это набор чистых операций над снимком профиля и персональными
// записями прогресса. Каждая операция детерминирована и не имеет побочных
// эффектов: она принимает текущее состояние и возвращает новое состояние
// для записи. Все дьюрабельные записи выполняются снаружи (в обработчиках
// команд), где действует дисциплина оптимистичной блокировки профиля.
//
// # Операции
//
//   - CompleteLesson: завершение урока. Идемпотентна: повторное
//     завершение того же урока не начисляет награду второй раз.
//   - AdvanceLessonProgress: частичное продвижение по уроку.
//     Прогресс монотонно не убывает и ограничен сверху 100;
//     достижение 100 завершает урок и начисляет награду ровно один раз.
//   - ClaimMissionReward: получение награды за ежедневную миссию.
//     Требует progress >= target и отсутствия прежнего клейма, иначе
//     shared.ErrIneligibleClaim без каких-либо изменений.
//   - PurchaseStoreItem: покупка товара за монеты. При нехватке баланса
//     shared.ErrInsufficientFunds без каких-либо изменений.
//   - LevelProgress: производное отображаемое значение прогресса уровня.
//
// # Инварианты
//
//   - Ни одна операция не выполняет часть эффектов: либо всё, либо ничего.
//   - Баланс монет никогда не отрицательный.
//   - Прогресс урока в диапазоне [0, 100] и никогда не убывает.
//   - Награда за (пользователь, урок) и за (пользователь, миссия, день)
//     начисляется не более одного раза.
package progression
