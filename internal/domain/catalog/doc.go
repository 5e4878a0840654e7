// Package catalog содержит справочные сущности LuckCash: уроки,
// ежедневные миссии, достижения и товары магазина наград.
//
// Каталог разделяется всеми пользователями и доступен только для чтения
// с точки зрения клиента. Изменения каталога выполняются администратором
// через отдельные команды. Персональные записи прогресса (прохождение
// уроков, прогресс миссий, покупки) живут в пакете progression и
// ссылаются на сущности каталога по ID.
package catalog
