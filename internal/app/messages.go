package app

// User-facing replies. Internal error detail goes to the log, never into
// these messages.
const (
	MsgSelectTenantUsage = "Пожалуйста, укажите ключ базы данных. Пример: /start Splunky-Rose4"
	MsgUnknownTenant     = "Неверный ключ базы данных. Попросите администратора добавить ключ."
	MsgNeedTenant        = "Сначала подключитесь к базе данных с помощью /start <ключ>."
	MsgAdminOnly         = "Эта команда доступна только администратору."
	MsgBindUsage         = "Укажите ключ и имя файла БД. Пример: /add_key Splunky-Rose4 books_splunky.db"
	MsgFindAuthorUsage   = "Укажите имя автора. Пример: /find_author Булгаков"
	MsgFindYearUsage     = "Укажите год издания. Пример: /find_year 2020"
	MsgLastUsage         = "Укажите число записей. Пример: /last 5"
	MsgNothingFound      = "Ничего не найдено."
	MsgExtractionFailed  = "Произошла ошибка при обработке изображений."
	MsgStageFailed       = "Ошибка при сохранении данных книги."
	MsgPendingNotFound   = "Ошибка: данные книги не найдены."
	MsgSaved             = "Книга успешно сохранена в базе данных!"
	MsgSaveFailed        = "Ошибка при сохранении книги. Нажмите «Сохранить» ещё раз, чтобы повторить."
	MsgStorageFailed     = "Хранилище временно недоступно. Попробуйте позже."
	MsgUnknownCommand    = "Неизвестная команда. Доступны: /start, /total, /my_id, /add_key, /find_author, /find_year, /last."

	msgConnectedFmt = "Подключено к базе данных с ключом %s. Отправь изображение первой страницы книги, и я пришлю карточку для сохранения."
	msgTotalFmt     = "В базе данных сохранено %d книг."
	msgWhoAmIFmt    = "Ваш Telegram user_id: %s"
	msgBoundFmt     = "Ключ %s добавлен с файлом БД %s."
)
